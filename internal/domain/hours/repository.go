package hours

import (
	"context"
	"time"
)

// LedgerRepository - interface for staff_hours table
type LedgerRepository interface {
	GetByUserMonth(ctx context.Context, userID string, month time.Time) (LedgerEntry, error)
	ListByMonth(ctx context.Context, month time.Time) ([]LedgerEntry, error)
	Upsert(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	// LockUserMonth serializes recomputes of one ledger row until the surrounding transaction ends
	LockUserMonth(ctx context.Context, userID string, month time.Time) error
	// ListInconsistent returns users whose ledger disagrees with their approved extra hours
	ListInconsistent(ctx context.Context, month time.Time) ([]string, error)
}

// DetailRepository - interface for staff_hours_detail table
type DetailRepository interface {
	ListByUserMonth(ctx context.Context, userID string, month time.Time) ([]HoursDetail, error)
	ReplaceForUserMonth(ctx context.Context, userID string, month time.Time, details []HoursDetail) error
}

// ExtraHoursRepository - interface for extra_hours table
type ExtraHoursRepository interface {
	// Create returns ErrDuplicateSubmission when the idempotency key was already used by the user
	Create(ctx context.Context, request ExtraHoursRequest) (ExtraHoursRequest, error)
	GetByID(ctx context.Context, id string) (ExtraHoursRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (ExtraHoursRequest, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (ExtraHoursRequest, error)
	ListByUser(ctx context.Context, userID string, filter MyExtraHoursFilter) ([]ExtraHoursRequest, error)
	List(ctx context.Context, filter ExtraHoursFilter) ([]ExtraHoursRequest, int64, error)
	ListApprovedByUserMonth(ctx context.Context, userID string, month time.Time) ([]ExtraHoursRequest, error)
	MarkApproved(ctx context.Context, id, approvedBy string, approvedAt time.Time) error
	MarkRejected(ctx context.Context, id, rejectedBy string, reason *string, rejectedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Transactor runs fn in a database transaction carried on the returned context.
// Repositories called with that context join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
