package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
)

type HoursJobs struct {
	aggregator        hours.Aggregator
	cache             hours.CacheInvalidator
	recomputeInterval time.Duration
	reconcileInterval time.Duration
	now               func() time.Time
}

func NewHoursJobs(
	aggregator hours.Aggregator,
	cache hours.CacheInvalidator,
	recomputeInterval time.Duration,
	reconcileInterval time.Duration,
) *HoursJobs {
	return &HoursJobs{
		aggregator:        aggregator,
		cache:             cache,
		recomputeInterval: recomputeInterval,
		reconcileInterval: reconcileInterval,
		now:               time.Now,
	}
}

func (j *HoursJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("recompute_current_month", j.recomputeInterval, j.RecomputeCurrentMonth)
	scheduler.AddJob("reconcile_staff_hours", j.reconcileInterval, j.ReconcileStaffHours)
}

// RecomputeCurrentMonth rebuilds every active staff member's ledger for the current month
func (j *HoursJobs) RecomputeCurrentMonth(ctx context.Context) error {
	month := hours.StartOfMonth(j.now())

	summary, err := j.aggregator.RecomputeAll(ctx, month)
	if err != nil {
		return fmt.Errorf("recompute %s: %w", hours.FormatMonth(month), err)
	}
	j.invalidate(summary)

	slog.Info("Cron: staff hours recomputed",
		"month", summary.Month,
		"users", summary.Users,
		"failed", len(summary.Failed),
	)
	return nil
}

// ReconcileStaffHours repairs drifted ledgers for the current and previous month
func (j *HoursJobs) ReconcileStaffHours(ctx context.Context) error {
	current := hours.StartOfMonth(j.now())
	months := []time.Time{current.AddDate(0, -1, 0), current}

	var errs []error
	for _, month := range months {
		summary, err := j.aggregator.Reconcile(ctx, month)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %s: %w", hours.FormatMonth(month), err))
			continue
		}
		j.invalidate(summary)

		if summary.Users > 0 || len(summary.Failed) > 0 {
			slog.Info("Cron: staff hours reconciled",
				"month", summary.Month,
				"users", summary.Users,
				"failed", len(summary.Failed),
			)
		}
	}
	return errors.Join(errs...)
}

func (j *HoursJobs) invalidate(summary hours.RecomputeSummary) {
	if j.cache == nil || summary.Users == 0 {
		return
	}
	j.cache.Invalidate(summary.UserIDs, hours.CacheKeyStaffHours)
	j.cache.InvalidateManagement(hours.CacheKeyStaffHoursManagement)
}
