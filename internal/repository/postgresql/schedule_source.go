package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/schedule"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scheduleSourceRepository struct {
	db *database.DB
}

func NewScheduleSourceRepository(db *database.DB) schedule.SourceRepository {
	return &scheduleSourceRepository{db: db}
}

// ListWeeklySlots implements schedule.SourceRepository.
func (r *scheduleSourceRepository) ListWeeklySlots(ctx context.Context, staffID string, from, to time.Time) ([]schedule.WeeklySlot, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, staff_id, kind, title, day_of_week,
			(EXTRACT(EPOCH FROM start_time) / 60)::int,
			(EXTRACT(EPOCH FROM end_time) / 60)::int,
			valid_from, valid_until, is_active, created_at, updated_at
		FROM weekly_schedule
		WHERE staff_id = $1
			AND is_active = TRUE
			AND (valid_from IS NULL OR valid_from < $3)
			AND (valid_until IS NULL OR valid_until >= $2)
		ORDER BY day_of_week, start_time`

	rows, err := q.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly schedule: %w", err)
	}
	defer rows.Close()

	var slots []schedule.WeeklySlot
	for rows.Next() {
		var s schedule.WeeklySlot
		var dayOfWeek int16
		if err := rows.Scan(
			&s.ID, &s.StaffID, &s.Kind, &s.Title, &dayOfWeek,
			&s.StartMinute, &s.EndMinute,
			&s.ValidFrom, &s.ValidUntil, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan weekly schedule: %w", err)
		}
		s.DayOfWeek = int(dayOfWeek)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weekly schedule: %w", err)
	}
	return slots, nil
}

// ListBookings implements schedule.SourceRepository. Only confirmed bookings count.
func (r *scheduleSourceRepository) ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]schedule.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, staff_id, 'booking', title, booking_date,
			(EXTRACT(EPOCH FROM start_time) / 60)::int,
			(EXTRACT(EPOCH FROM end_time) / 60)::int
		FROM bookings
		WHERE staff_id = $1 AND status = 'confirmed'
			AND booking_date >= $2 AND booking_date < $3
		ORDER BY booking_date, start_time`

	rows, err := q.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return collectSessions(rows)
}

// ListEvents implements schedule.SourceRepository.
func (r *scheduleSourceRepository) ListEvents(ctx context.Context, staffID string, from, to time.Time) ([]schedule.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, staff_id, 'event', title, event_date,
			(EXTRACT(EPOCH FROM start_time) / 60)::int,
			(EXTRACT(EPOCH FROM end_time) / 60)::int
		FROM events
		WHERE staff_id = $1
			AND event_date >= $2 AND event_date < $3
		ORDER BY event_date, start_time`

	rows, err := q.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]schedule.Session, error) {
	defer rows.Close()

	var sessions []schedule.Session
	for rows.Next() {
		var s schedule.Session
		if err := rows.Scan(&s.ID, &s.StaffID, &s.Kind, &s.Title, &s.Date, &s.StartMinute, &s.EndMinute); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// ListActiveStaff implements schedule.SourceRepository.
func (r *scheduleSourceRepository) ListActiveStaff(ctx context.Context, from, to time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	// staff_hours is included so users whose sources disappeared get their row zeroed
	query := `
		SELECT staff_id FROM weekly_schedule
		WHERE is_active = TRUE
			AND (valid_from IS NULL OR valid_from < $2)
			AND (valid_until IS NULL OR valid_until >= $1)
		UNION
		SELECT staff_id FROM bookings
		WHERE status = 'confirmed' AND booking_date >= $1 AND booking_date < $2
		UNION
		SELECT staff_id FROM events
		WHERE event_date >= $1 AND event_date < $2
		UNION
		SELECT user_id FROM extra_hours
		WHERE status = 'approved' AND work_date >= $1 AND work_date < $2
		UNION
		SELECT user_id FROM staff_hours
		WHERE month = $1`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query active staff: %w", err)
	}
	defer rows.Close()

	var staffIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan staff id: %w", err)
		}
		staffIDs = append(staffIDs, id)
	}
	return staffIDs, rows.Err()
}
