package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) hours.LedgerRepository {
	return &ledgerRepository{db: db}
}

const ledgerColumns = `sh.id, sh.user_id, sh.month, sh.calculated_hours::float8, sh.manual_adjustment_hours::float8,
		sh.total_hours::float8, sh.last_calculated_at, sh.created_at, sh.updated_at, p.full_name`

func scanLedger(row pgx.Row) (hours.LedgerEntry, error) {
	var e hours.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Month,
		&e.CalculatedHours,
		&e.ManualAdjustmentHours,
		&e.TotalHours,
		&e.LastCalculatedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.StaffName,
	)
	return e, err
}

// LockUserMonth implements hours.LedgerRepository. The advisory lock is
// transaction scoped, so it must be called inside WithinTx.
func (r *ledgerRepository) LockUserMonth(ctx context.Context, userID string, month time.Time) error {
	_, err := GetQuerier(ctx, r.db).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
		userID, hours.FormatMonth(month),
	)
	if err != nil {
		return fmt.Errorf("failed to lock staff hours: %w", err)
	}
	return nil
}

// GetByUserMonth implements hours.LedgerRepository.
func (r *ledgerRepository) GetByUserMonth(ctx context.Context, userID string, month time.Time) (hours.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ledgerColumns + `
		FROM staff_hours sh
		LEFT JOIN profiles p ON p.id = sh.user_id
		WHERE sh.user_id = $1 AND sh.month = $2`

	entry, err := scanLedger(q.QueryRow(ctx, query, userID, hours.StartOfMonth(month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hours.LedgerEntry{}, hours.ErrLedgerNotFound
		}
		return hours.LedgerEntry{}, fmt.Errorf("failed to get staff hours: %w", err)
	}
	return entry, nil
}

// ListByMonth implements hours.LedgerRepository.
func (r *ledgerRepository) ListByMonth(ctx context.Context, month time.Time) ([]hours.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ledgerColumns + `
		FROM staff_hours sh
		LEFT JOIN profiles p ON p.id = sh.user_id
		WHERE sh.month = $1
		ORDER BY sh.total_hours DESC, p.full_name ASC`

	rows, err := q.Query(ctx, query, hours.StartOfMonth(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list staff hours: %w", err)
	}
	defer rows.Close()

	entries := []hours.LedgerEntry{}
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff hours: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff hours: %w", err)
	}
	return entries, nil
}

// Upsert implements hours.LedgerRepository. The three hour columns are always written together.
func (r *ledgerRepository) Upsert(ctx context.Context, entry hours.LedgerEntry) (hours.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_hours (user_id, month, calculated_hours, manual_adjustment_hours, total_hours, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, month) DO UPDATE SET
			calculated_hours = EXCLUDED.calculated_hours,
			manual_adjustment_hours = EXCLUDED.manual_adjustment_hours,
			total_hours = EXCLUDED.total_hours,
			last_calculated_at = EXCLUDED.last_calculated_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	entry.Month = hours.StartOfMonth(entry.Month)
	err := q.QueryRow(ctx, query,
		entry.UserID,
		entry.Month,
		entry.CalculatedHours,
		entry.ManualAdjustmentHours,
		entry.TotalHours,
		entry.LastCalculatedAt,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return hours.LedgerEntry{}, fmt.Errorf("failed to upsert staff hours: %w", err)
	}
	return entry, nil
}

// ListInconsistent implements hours.LedgerRepository.
func (r *ledgerRepository) ListInconsistent(ctx context.Context, month time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	// Users with approved extra hours but no ledger row are included as well.
	query := `
		WITH approved AS (
			SELECT user_id, SUM(hours) AS total
			FROM extra_hours
			WHERE status = 'approved' AND work_date >= $1 AND work_date < $2
			GROUP BY user_id
		), ledger AS (
			SELECT id, user_id, calculated_hours, manual_adjustment_hours, total_hours
			FROM staff_hours
			WHERE month = $1
		)
		SELECT COALESCE(l.user_id, a.user_id)
		FROM ledger l
		FULL OUTER JOIN approved a ON a.user_id = l.user_id
		WHERE l.id IS NULL
			OR l.manual_adjustment_hours <> COALESCE(a.total, 0)
			OR l.total_hours <> l.calculated_hours + l.manual_adjustment_hours`

	start := hours.StartOfMonth(month)
	rows, err := q.Query(ctx, query, start, hours.EndOfMonth(start))
	if err != nil {
		return nil, fmt.Errorf("failed to list inconsistent staff hours: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}
