package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type extraHoursRepositoryImpl struct {
	db *database.DB
}

func NewExtraHoursRepository(db *database.DB) hours.ExtraHoursRepository {
	return &extraHoursRepositoryImpl{db: db}
}

const extraHoursColumns = `
	eh.id, eh.user_id, eh.hours::float8, eh.justification, eh.work_date, eh.status,
	eh.created_by, eh.approved_by, eh.approved_at,
	eh.rejected_by, eh.rejected_at, eh.rejection_reason,
	eh.idempotency_key, eh.created_at, eh.updated_at,
	p.full_name`

func scanExtraHours(row pgx.Row) (hours.ExtraHoursRequest, error) {
	var req hours.ExtraHoursRequest
	var status string
	err := row.Scan(
		&req.ID, &req.UserID, &req.Hours, &req.Justification, &req.WorkDate, &status,
		&req.CreatedBy, &req.ApprovedBy, &req.ApprovedAt,
		&req.RejectedBy, &req.RejectedAt, &req.RejectionReason,
		&req.IdempotencyKey, &req.CreatedAt, &req.UpdatedAt,
		&req.StaffName,
	)
	req.Status = hours.ExtraHoursStatus(status)
	return req, err
}

func collectExtraHours(rows pgx.Rows) ([]hours.ExtraHoursRequest, error) {
	defer rows.Close()

	requests := []hours.ExtraHoursRequest{}
	for rows.Next() {
		req, err := scanExtraHours(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extra hours request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extra hours requests: %w", err)
	}
	return requests, nil
}

// Create implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) Create(ctx context.Context, request hours.ExtraHoursRequest) (hours.ExtraHoursRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO extra_hours (user_id, hours, justification, work_date, status, created_by, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING id, created_at, updated_at`

	if request.Status == "" {
		request.Status = hours.ExtraHoursStatusPending
	}

	err := q.QueryRow(ctx, query,
		request.UserID,
		request.Hours,
		request.Justification,
		request.WorkDate,
		string(request.Status),
		request.CreatedBy,
		request.IdempotencyKey,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		// DO NOTHING returns no row when the key was already used
		if errors.Is(err, pgx.ErrNoRows) {
			return hours.ExtraHoursRequest{}, hours.ErrDuplicateSubmission
		}
		return hours.ExtraHoursRequest{}, fmt.Errorf("failed to create extra hours request: %w", err)
	}

	return request, nil
}

func (r *extraHoursRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (hours.ExtraHoursRequest, error) {
	q := GetQuerier(ctx, r.db)

	req, err := scanExtraHours(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hours.ExtraHoursRequest{}, hours.ErrExtraHoursNotFound
		}
		return hours.ExtraHoursRequest{}, fmt.Errorf("failed to get extra hours request: %w", err)
	}
	return req, nil
}

// GetByID implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) GetByID(ctx context.Context, id string) (hours.ExtraHoursRequest, error) {
	return r.getOne(ctx, `SELECT `+extraHoursColumns+`
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE eh.id = $1`, id)
}

// GetByIDForUpdate implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (hours.ExtraHoursRequest, error) {
	return r.getOne(ctx, `SELECT `+extraHoursColumns+`
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE eh.id = $1
		FOR UPDATE OF eh`, id)
}

// GetByIdempotencyKey implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) GetByIdempotencyKey(ctx context.Context, userID, key string) (hours.ExtraHoursRequest, error) {
	return r.getOne(ctx, `SELECT `+extraHoursColumns+`
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE eh.user_id = $1 AND eh.idempotency_key = $2`, userID, key)
}

// ListByUser implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) ListByUser(ctx context.Context, userID string, filter hours.MyExtraHoursFilter) ([]hours.ExtraHoursRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + extraHoursColumns + `
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE eh.user_id = $1`
	args := []interface{}{userID}

	if filter.Status != nil && *filter.Status != "" {
		query += " AND eh.status = $2"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY eh.created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query extra hours requests: %w", err)
	}
	return collectExtraHours(rows)
}

// List implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) List(ctx context.Context, filter hours.ExtraHoursFilter) ([]hours.ExtraHoursRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE 1 = 1`

	args := []interface{}{}
	argIdx := 1

	whereClauses := []string{}

	if filter.Status != nil && *filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("eh.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.UserID != nil && *filter.UserID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("eh.user_id = $%d", argIdx))
		args = append(args, *filter.UserID)
		argIdx++
	}

	if filter.Month != nil && *filter.Month != "" {
		month, err := hours.ParseMonth(*filter.Month, time.Now())
		if err != nil {
			return nil, 0, err
		}
		whereClauses = append(whereClauses, fmt.Sprintf("eh.work_date >= $%d AND eh.work_date < $%d", argIdx, argIdx+1))
		args = append(args, month, hours.EndOfMonth(month))
		argIdx += 2
	}

	if len(whereClauses) > 0 {
		baseQuery += " AND " + strings.Join(whereClauses, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count extra hours requests: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := `SELECT ` + extraHoursColumns + baseQuery +
		fmt.Sprintf(" ORDER BY eh.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query extra hours requests: %w", err)
	}
	requests, err := collectExtraHours(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListApprovedByUserMonth implements hours.ExtraHoursRepository.
func (r *extraHoursRepositoryImpl) ListApprovedByUserMonth(ctx context.Context, userID string, month time.Time) ([]hours.ExtraHoursRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + extraHoursColumns + `
		FROM extra_hours eh
		LEFT JOIN profiles p ON p.id = eh.user_id
		WHERE eh.user_id = $1 AND eh.status = 'approved'
			AND eh.work_date >= $2 AND eh.work_date < $3
		ORDER BY eh.work_date, eh.created_at`

	start := hours.StartOfMonth(month)
	rows, err := q.Query(ctx, query, userID, start, hours.EndOfMonth(start))
	if err != nil {
		return nil, fmt.Errorf("failed to query approved extra hours: %w", err)
	}
	return collectExtraHours(rows)
}

// MarkApproved implements hours.ExtraHoursRepository. Only pending rows transition.
func (r *extraHoursRepositoryImpl) MarkApproved(ctx context.Context, id, approvedBy string, approvedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE extra_hours
		SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'pending'`

	result, err := q.Exec(ctx, query, id, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("failed to approve extra hours request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return hours.ErrRequestAlreadyProcessed
	}
	return nil
}

// MarkRejected implements hours.ExtraHoursRepository. Only pending rows transition.
func (r *extraHoursRepositoryImpl) MarkRejected(ctx context.Context, id, rejectedBy string, reason *string, rejectedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE extra_hours
		SET status = 'rejected', rejected_by = $2, rejection_reason = $3, rejected_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'pending'`

	result, err := q.Exec(ctx, query, id, rejectedBy, reason, rejectedAt)
	if err != nil {
		return fmt.Errorf("failed to reject extra hours request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return hours.ErrRequestAlreadyProcessed
	}
	return nil
}

// Delete implements hours.ExtraHoursRepository. Missing rows are not an error.
func (r *extraHoursRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM extra_hours WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete extra hours request: %w", err)
	}
	return nil
}
