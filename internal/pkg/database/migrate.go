package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// migration is one forward-only schema step; statements must be idempotent
type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "profiles",
		SQL: `CREATE TABLE IF NOT EXISTS profiles (
			id         UUID PRIMARY KEY,
			full_name  TEXT NOT NULL,
			role       TEXT NOT NULL CHECK (role IN ('admin', 'teacher', 'tutor', 'student')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Version: 2,
		Name:    "weekly_schedule",
		SQL: `CREATE TABLE IF NOT EXISTS weekly_schedule (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			staff_id    UUID NOT NULL,
			kind        TEXT NOT NULL CHECK (kind IN ('class', 'tutoring', 'adventure', 'elective')),
			title       TEXT NOT NULL,
			day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
			start_time  TIME NOT NULL,
			end_time    TIME NOT NULL CHECK (end_time > start_time),
			valid_from  DATE,
			valid_until DATE,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_weekly_schedule_staff ON weekly_schedule (staff_id)`,
	},
	{
		Version: 3,
		Name:    "bookings_and_events",
		SQL: `CREATE TABLE IF NOT EXISTS bookings (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			staff_id     UUID NOT NULL,
			title        TEXT NOT NULL,
			booking_date DATE NOT NULL,
			start_time   TIME NOT NULL,
			end_time     TIME NOT NULL CHECK (end_time > start_time),
			status       TEXT NOT NULL DEFAULT 'confirmed' CHECK (status IN ('pending', 'confirmed', 'cancelled')),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_bookings_staff_date ON bookings (staff_id, booking_date);
		CREATE TABLE IF NOT EXISTS events (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			staff_id   UUID NOT NULL,
			title      TEXT NOT NULL,
			event_date DATE NOT NULL,
			start_time TIME NOT NULL,
			end_time   TIME NOT NULL CHECK (end_time > start_time),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_events_staff_date ON events (staff_id, event_date)`,
	},
	{
		Version: 4,
		Name:    "extra_hours",
		SQL: `CREATE TABLE IF NOT EXISTS extra_hours (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id          UUID NOT NULL,
			hours            NUMERIC(5,2) NOT NULL CHECK (hours > 0),
			justification    TEXT NOT NULL CHECK (length(btrim(justification)) > 0),
			work_date        DATE NOT NULL,
			status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
			created_by       UUID NOT NULL,
			approved_by      UUID,
			approved_at      TIMESTAMPTZ,
			rejected_by      UUID,
			rejected_at      TIMESTAMPTZ,
			rejection_reason TEXT,
			idempotency_key  TEXT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_extra_hours_idempotency
			ON extra_hours (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_extra_hours_user_work_date ON extra_hours (user_id, work_date);
		CREATE INDEX IF NOT EXISTS idx_extra_hours_status ON extra_hours (status)`,
	},
	{
		Version: 5,
		Name:    "staff_hours",
		SQL: `CREATE TABLE IF NOT EXISTS staff_hours (
			id                      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id                 UUID NOT NULL,
			month                   DATE NOT NULL,
			calculated_hours        NUMERIC(7,2) NOT NULL DEFAULT 0,
			manual_adjustment_hours NUMERIC(7,2) NOT NULL DEFAULT 0,
			total_hours             NUMERIC(7,2) NOT NULL DEFAULT 0,
			last_calculated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, month),
			CHECK (total_hours = calculated_hours + manual_adjustment_hours)
		);
		CREATE TABLE IF NOT EXISTS staff_hours_detail (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id      UUID NOT NULL,
			month        DATE NOT NULL,
			source_type  TEXT NOT NULL CHECK (source_type IN ('class', 'tutoring', 'event', 'booking', 'extra', 'adventure', 'elective')),
			source_id    TEXT,
			source_title TEXT NOT NULL,
			hours        NUMERIC(7,2) NOT NULL,
			day_of_week  SMALLINT,
			start_time   TEXT,
			end_time     TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_staff_hours_detail_user_month ON staff_hours_detail (user_id, month)`,
	},
	{
		Version: 6,
		Name:    "notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
			id           UUID PRIMARY KEY,
			recipient_id UUID NOT NULL,
			sender_id    UUID,
			type         TEXT NOT NULL,
			title        TEXT NOT NULL,
			message      TEXT NOT NULL,
			related_id   TEXT,
			data         JSONB,
			is_read      BOOLEAN NOT NULL DEFAULT FALSE,
			read_at      TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	if _, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return applied, err
		}
		slog.Info("Migration applied", "version", m.Version, "name", m.Name)
		applied++
	}

	return applied, nil
}

func (db *DB) apply(ctx context.Context, m migration) error {
	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		return nil
	})
}
