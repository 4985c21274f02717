package cli

import (
	"context"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

// Migrator applies pending schema migrations
type Migrator interface {
	Migrate(ctx context.Context) (int, error)
}

// Backend is the database-backed part of the App, opened only by commands that need it.
type Backend struct {
	Migrator   Migrator
	Aggregator hours.Aggregator
	Cache      hours.CacheInvalidator
}

// App holds what the hoursctl commands operate on.
type App struct {
	Tokens  jwt.Service
	Connect func(ctx context.Context) (*Backend, func(), error)
}

// NewRootCmd creates the top-level "hoursctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "hoursctl",
		Short:         "Staff hours administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(app),
		newRecomputeCmd(app),
		newReconcileCmd(app),
		newTokenCmd(app),
	)

	return root
}

func withBackend(ctx context.Context, app *App, fn func(b *Backend) error) error {
	b, closeFn, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(b)
}
