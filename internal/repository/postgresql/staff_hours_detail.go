package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
)

type detailRepository struct {
	db *database.DB
}

func NewDetailRepository(db *database.DB) hours.DetailRepository {
	return &detailRepository{db: db}
}

// ListByUserMonth implements hours.DetailRepository.
func (r *detailRepository) ListByUserMonth(ctx context.Context, userID string, month time.Time) ([]hours.HoursDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, month, source_type, source_id, source_title, hours::float8,
			day_of_week, start_time, end_time, created_at
		FROM staff_hours_detail
		WHERE user_id = $1 AND month = $2
		ORDER BY source_type, day_of_week NULLS LAST, start_time NULLS LAST, source_title`

	rows, err := q.Query(ctx, query, userID, hours.StartOfMonth(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list staff hours detail: %w", err)
	}
	defer rows.Close()

	var details []hours.HoursDetail
	for rows.Next() {
		var d hours.HoursDetail
		var sourceType string
		var dayOfWeek *int16
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.Month,
			&sourceType,
			&d.SourceID,
			&d.SourceTitle,
			&d.Hours,
			&dayOfWeek,
			&d.StartTime,
			&d.EndTime,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff hours detail: %w", err)
		}
		d.SourceType = hours.SourceType(sourceType)
		if dayOfWeek != nil {
			dow := int(*dayOfWeek)
			d.DayOfWeek = &dow
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff hours detail: %w", err)
	}
	return details, nil
}

var detailInsertColumns = []string{
	"user_id", "month", "source_type", "source_id", "source_title",
	"hours", "day_of_week", "start_time", "end_time",
}

// ReplaceForUserMonth implements hours.DetailRepository. Callers run it in the
// same transaction as the ledger upsert.
func (r *detailRepository) ReplaceForUserMonth(ctx context.Context, userID string, month time.Time, details []hours.HoursDetail) error {
	q := GetQuerier(ctx, r.db)
	month = hours.StartOfMonth(month)

	if _, err := q.Exec(ctx, `DELETE FROM staff_hours_detail WHERE user_id = $1 AND month = $2`, userID, month); err != nil {
		return fmt.Errorf("failed to clear staff hours detail: %w", err)
	}
	if len(details) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(details))
	for _, d := range details {
		var dayOfWeek *int16
		if d.DayOfWeek != nil {
			dow := int16(*d.DayOfWeek)
			dayOfWeek = &dow
		}
		rows = append(rows, []interface{}{
			userID,
			month,
			string(d.SourceType),
			d.SourceID,
			d.SourceTitle,
			d.Hours,
			dayOfWeek,
			d.StartTime,
			d.EndTime,
		})
	}

	query, valueArgs := multiRowInsert("staff_hours_detail", detailInsertColumns, rows)
	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to insert staff hours detail: %w", err)
	}
	return nil
}
