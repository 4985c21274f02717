package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/staff-hours-go/internal/cli"
	"github.com/cmlabs-hris/staff-hours-go/internal/config"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/staff-hours-go/internal/repository/postgresql"
	hoursService "github.com/cmlabs-hris/staff-hours-go/internal/service/hours"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Tokens: jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration),
		Connect: func(ctx context.Context) (*cli.Backend, func(), error) {
			db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
				MaxConns: cfg.Database.MaxConns,
				MinConns: 1,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("connect database: %w", err)
			}

			aggregator := hoursService.NewAggregator(
				postgresql.NewTxManager(db),
				postgresql.NewLedgerRepository(db),
				postgresql.NewDetailRepository(db),
				postgresql.NewExtraHoursRepository(db),
				postgresql.NewScheduleSourceRepository(db),
				cfg.Hours.RecomputeWorkers,
			)
			// Cache is left nil: connected clients live in the API process.
			return &cli.Backend{Migrator: db, Aggregator: aggregator}, db.Close, nil
		},
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
