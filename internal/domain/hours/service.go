package hours

import (
	"context"
	"time"
)

// Cache keys the dashboards refetch after a mutation
const (
	CacheKeyStaffHours           = "staff-hours"
	CacheKeyExtraHours           = "extra-hours"
	CacheKeyStaffHoursManagement = "staff-hours-management"
)

// CacheInvalidator tells connected clients which read caches are stale
type CacheInvalidator interface {
	Invalidate(userIDs []string, keys ...string)
	InvalidateManagement(keys ...string)
}

// Aggregator recomputes ledger entries from the schedule sources and approved extra hours
type Aggregator interface {
	// Recompute joins the transaction on ctx when there is one
	Recompute(ctx context.Context, userID string, month time.Time) (LedgerEntry, error)
	RecomputeAll(ctx context.Context, month time.Time) (RecomputeSummary, error)
	Reconcile(ctx context.Context, month time.Time) (RecomputeSummary, error)
}

type HoursService interface {
	// Ledger
	GetLedger(ctx context.Context, userID string, month string) (*LedgerResponse, error)
	ListLedgers(ctx context.Context, month string) ([]LedgerResponse, error)
	GetDetail(ctx context.Context, userID string, month string) (DetailReportResponse, error)
	Recompute(ctx context.Context, req RecomputeRequest) (RecomputeSummary, error)
	Reconcile(ctx context.Context, month string) (RecomputeSummary, error)

	// Extra hours
	SubmitExtraHours(ctx context.Context, req SubmitExtraHoursRequest) (ExtraHoursResponse, bool, error)
	GetExtraHours(ctx context.Context, id string) (ExtraHoursResponse, error)
	ListMyExtraHours(ctx context.Context, filter MyExtraHoursFilter) ([]ExtraHoursResponse, error)
	ListExtraHours(ctx context.Context, filter ExtraHoursFilter) (ListExtraHoursResponse, error)
	ApproveExtraHours(ctx context.Context, id string) (ExtraHoursResponse, error)
	RejectExtraHours(ctx context.Context, id string, req RejectExtraHoursRequest) (ExtraHoursResponse, error)
	DeleteExtraHours(ctx context.Context, id string) error
}
