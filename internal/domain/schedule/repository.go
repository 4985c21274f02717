package schedule

import (
	"context"
	"time"
)

// SourceRepository reads the schedule tables the hours aggregation is derived from.
// Ranges are half-open: [from, to).
type SourceRepository interface {
	ListWeeklySlots(ctx context.Context, staffID string, from, to time.Time) ([]WeeklySlot, error)
	ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]Session, error)
	ListEvents(ctx context.Context, staffID string, from, to time.Time) ([]Session, error)
	// ListActiveStaff returns every staff member with any hours source in the range
	ListActiveStaff(ctx context.Context, from, to time.Time) ([]string, error)
}
