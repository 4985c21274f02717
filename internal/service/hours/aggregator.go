package hours

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/schedule"
	"golang.org/x/sync/errgroup"
)

const defaultRecomputeWorkers = 4

// Aggregator rebuilds staff_hours and staff_hours_detail from the schedule
// sources and approved extra hours.
type Aggregator struct {
	tx      hours.Transactor
	ledger  hours.LedgerRepository
	detail  hours.DetailRepository
	extra   hours.ExtraHoursRepository
	sources schedule.SourceRepository
	workers int
	now     func() time.Time
}

func NewAggregator(
	tx hours.Transactor,
	ledger hours.LedgerRepository,
	detail hours.DetailRepository,
	extra hours.ExtraHoursRepository,
	sources schedule.SourceRepository,
	workers int,
) *Aggregator {
	if workers <= 0 {
		workers = defaultRecomputeWorkers
	}
	return &Aggregator{
		tx:      tx,
		ledger:  ledger,
		detail:  detail,
		extra:   extra,
		sources: sources,
		workers: workers,
		now:     time.Now,
	}
}

// Recompute implements hours.Aggregator.
func (a *Aggregator) Recompute(ctx context.Context, userID string, month time.Time) (hours.LedgerEntry, error) {
	start := hours.StartOfMonth(month)
	end := hours.EndOfMonth(start)

	var entry hours.LedgerEntry
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Sources are read only after the lock so a concurrent fold's commit is visible
		if err := a.ledger.LockUserMonth(ctx, userID, start); err != nil {
			return err
		}

		details, err := a.collect(ctx, userID, start, end)
		if err != nil {
			return err
		}

		var calculated, manual float64
		for _, d := range details {
			if d.SourceType == hours.SourceExtra {
				manual += d.Hours
			} else {
				calculated += d.Hours
			}
		}
		calculated = roundHours(calculated)
		manual = roundHours(manual)

		if err := a.detail.ReplaceForUserMonth(ctx, userID, start, details); err != nil {
			return fmt.Errorf("failed to replace hours detail: %w", err)
		}

		entry, err = a.ledger.Upsert(ctx, hours.LedgerEntry{
			UserID:                userID,
			Month:                 start,
			CalculatedHours:       calculated,
			ManualAdjustmentHours: manual,
			TotalHours:            roundHours(calculated + manual),
			LastCalculatedAt:      a.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert staff hours: %w", err)
		}
		return nil
	})
	if err != nil {
		return hours.LedgerEntry{}, err
	}

	return entry, nil
}

// collect builds one detail row per contributing source
func (a *Aggregator) collect(ctx context.Context, userID string, start, end time.Time) ([]hours.HoursDetail, error) {
	var details []hours.HoursDetail

	slots, err := a.sources.ListWeeklySlots(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly schedule: %w", err)
	}
	for _, slot := range slots {
		occurrences := 0
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			if slot.ActiveOn(day) {
				occurrences++
			}
		}
		h := roundHours(float64(occurrences) * slot.DurationHours())
		if h <= 0 {
			continue
		}

		sourceID := slot.ID
		dayOfWeek := slot.DayOfWeek
		startTime := schedule.FormatMinute(slot.StartMinute)
		endTime := schedule.FormatMinute(slot.EndMinute)
		details = append(details, hours.HoursDetail{
			UserID:      userID,
			Month:       start,
			SourceType:  slotSourceType(slot.Kind),
			SourceID:    &sourceID,
			SourceTitle: slot.Title,
			Hours:       h,
			DayOfWeek:   &dayOfWeek,
			StartTime:   &startTime,
			EndTime:     &endTime,
		})
	}

	bookings, err := a.sources.ListBookings(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	events, err := a.sources.ListEvents(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for _, session := range append(bookings, events...) {
		h := roundHours(session.DurationHours())
		if h <= 0 {
			continue
		}

		sourceID := session.ID
		dayOfWeek := int(session.Date.Weekday())
		startTime := schedule.FormatMinute(session.StartMinute)
		endTime := schedule.FormatMinute(session.EndMinute)
		sourceType := hours.SourceBooking
		if session.Kind == string(hours.SourceEvent) {
			sourceType = hours.SourceEvent
		}
		details = append(details, hours.HoursDetail{
			UserID:      userID,
			Month:       start,
			SourceType:  sourceType,
			SourceID:    &sourceID,
			SourceTitle: session.Title,
			Hours:       h,
			DayOfWeek:   &dayOfWeek,
			StartTime:   &startTime,
			EndTime:     &endTime,
		})
	}

	approved, err := a.extra.ListApprovedByUserMonth(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved extra hours: %w", err)
	}
	for _, req := range approved {
		sourceID := req.ID
		dayOfWeek := int(req.WorkDate.Weekday())
		details = append(details, hours.HoursDetail{
			UserID:      userID,
			Month:       start,
			SourceType:  hours.SourceExtra,
			SourceID:    &sourceID,
			SourceTitle: req.Justification,
			Hours:       roundHours(req.Hours),
			DayOfWeek:   &dayOfWeek,
		})
	}

	return details, nil
}

// RecomputeAll implements hours.Aggregator. Each user is recomputed in its own transaction.
func (a *Aggregator) RecomputeAll(ctx context.Context, month time.Time) (hours.RecomputeSummary, error) {
	start := hours.StartOfMonth(month)

	userIDs, err := a.sources.ListActiveStaff(ctx, start, hours.EndOfMonth(start))
	if err != nil {
		return hours.RecomputeSummary{}, fmt.Errorf("failed to list active staff: %w", err)
	}

	return a.recomputeUsers(ctx, start, userIDs)
}

// Reconcile implements hours.Aggregator.
func (a *Aggregator) Reconcile(ctx context.Context, month time.Time) (hours.RecomputeSummary, error) {
	start := hours.StartOfMonth(month)

	userIDs, err := a.ledger.ListInconsistent(ctx, start)
	if err != nil {
		return hours.RecomputeSummary{}, fmt.Errorf("failed to list inconsistent staff hours: %w", err)
	}
	if len(userIDs) > 0 {
		slog.Warn("Inconsistent staff hours found", "month", hours.FormatMonth(start), "users", len(userIDs))
	}

	return a.recomputeUsers(ctx, start, userIDs)
}

func (a *Aggregator) recomputeUsers(ctx context.Context, month time.Time, userIDs []string) (hours.RecomputeSummary, error) {
	summary := hours.RecomputeSummary{Month: hours.FormatMonth(month)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if _, err := a.Recompute(gctx, userID, month); err != nil {
				// context cancellation aborts the run, a single user failure does not
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Error("Failed to recompute staff hours", "user_id", userID, "month", summary.Month, "error", err)
				mu.Lock()
				summary.Failed = append(summary.Failed, userID)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			summary.Users++
			summary.UserIDs = append(summary.UserIDs, userID)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	sort.Strings(summary.UserIDs)
	sort.Strings(summary.Failed)
	return summary, nil
}

func slotSourceType(kind string) hours.SourceType {
	t := hours.SourceType(kind)
	if t.IsValid() {
		return t
	}
	return hours.SourceClass
}

// roundHours rounds to two decimals
func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
