package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type profileRepositoryImpl struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) user.ProfileRepository {
	return &profileRepositoryImpl{db: db}
}

// GetByID implements user.ProfileRepository.
func (r *profileRepositoryImpl) GetByID(ctx context.Context, id string) (user.Profile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, full_name, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p user.Profile
	var role string
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Profile{}, user.ErrUserNotFound
		}
		return user.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Role = user.Role(role)

	return p, nil
}

// ListIDsByRole implements user.ProfileRepository.
func (r *profileRepositoryImpl) ListIDsByRole(ctx context.Context, role user.Role) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM profiles WHERE role = $1 ORDER BY created_at`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
