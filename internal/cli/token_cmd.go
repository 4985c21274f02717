package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd(app *App) *cobra.Command {
	var userID string
	var email string
	var role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				userID = uuid.NewString()
			}
			if !validator.IsValidUUID(userID) {
				return fmt.Errorf("invalid --user %q: must be a UUID", userID)
			}
			r := user.Role(role)
			if _, ok := user.RolePermissions[r]; !ok {
				return fmt.Errorf("unknown --role %q", role)
			}

			token, expiresAt, err := app.Tokens.GenerateAccessToken(userID, email, r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:    %s\n", userID)
			fmt.Fprintf(out, "role:    %s\n", r)
			fmt.Fprintf(out, "expires: %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID (default: random UUID)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", string(user.RoleTeacher), "Role: admin, teacher, tutor or student")

	return cmd
}
