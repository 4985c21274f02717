package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
	"github.com/spf13/cobra"
)

func newRecomputeCmd(app *App) *cobra.Command {
	var month string
	var userID string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild staff hours ledgers for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := hours.ParseMonth(month, time.Now())
			if err != nil {
				return err
			}
			if userID != "" && !validator.IsValidUUID(userID) {
				return fmt.Errorf("invalid --user %q: must be a UUID", userID)
			}

			return withBackend(cmd.Context(), app, func(b *Backend) error {
				if userID != "" {
					entry, err := b.Aggregator.Recompute(cmd.Context(), userID, start)
					if err != nil {
						return err
					}
					invalidate(b, hours.RecomputeSummary{Users: 1, UserIDs: []string{userID}})
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: calculated %.2fh, manual %.2fh, total %.2fh\n",
						userID, hours.FormatMonth(entry.Month),
						entry.CalculatedHours, entry.ManualAdjustmentHours, entry.TotalHours)
					return nil
				}

				summary, err := b.Aggregator.RecomputeAll(cmd.Context(), start)
				if err != nil {
					return err
				}
				invalidate(b, summary)
				printSummary(cmd.OutOrStdout(), "recomputed", summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&userID, "user", "", "Recompute a single staff member")

	return cmd
}

func newReconcileCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute ledgers that drifted from their approved extra hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := hours.ParseMonth(month, time.Now())
			if err != nil {
				return err
			}

			return withBackend(cmd.Context(), app, func(b *Backend) error {
				summary, err := b.Aggregator.Reconcile(cmd.Context(), start)
				if err != nil {
					return err
				}
				invalidate(b, summary)
				printSummary(cmd.OutOrStdout(), "reconciled", summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")

	return cmd
}

func invalidate(b *Backend, summary hours.RecomputeSummary) {
	if b.Cache == nil || summary.Users == 0 {
		return
	}
	b.Cache.Invalidate(summary.UserIDs, hours.CacheKeyStaffHours)
	b.Cache.InvalidateManagement(hours.CacheKeyStaffHoursManagement)
}

func printSummary(w io.Writer, verb string, summary hours.RecomputeSummary) {
	fmt.Fprintf(w, "%s: %d staff member(s) %s\n", summary.Month, summary.Users, verb)
	if len(summary.Failed) > 0 {
		fmt.Fprintf(w, "failed: %s\n", strings.Join(summary.Failed, ", "))
	}
}
