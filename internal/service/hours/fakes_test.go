package hours

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/schedule"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/google/uuid"
)

type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

func ledgerKey(userID string, month time.Time) string {
	return userID + "|" + hours.FormatMonth(month)
}

type fakeLedgerRepo struct {
	mu           sync.Mutex
	entries      map[string]hours.LedgerEntry
	inconsistent []string
	locks        []string
	lockErr      error
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[string]hours.LedgerEntry)}
}

func (f *fakeLedgerRepo) GetByUserMonth(ctx context.Context, userID string, month time.Time) (hours.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[ledgerKey(userID, month)]
	if !ok {
		return hours.LedgerEntry{}, hours.ErrLedgerNotFound
	}
	return e, nil
}

func (f *fakeLedgerRepo) ListByMonth(ctx context.Context, month time.Time) ([]hours.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []hours.LedgerEntry
	for _, e := range f.entries {
		if hours.FormatMonth(e.Month) == hours.FormatMonth(month) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeLedgerRepo) Upsert(ctx context.Context, entry hours.LedgerEntry) (hours.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(entry.UserID, entry.Month)
	if existing, ok := f.entries[key]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = uuid.NewString()
		entry.CreatedAt = time.Now()
	}
	entry.UpdatedAt = time.Now()
	f.entries[key] = entry
	return entry, nil
}

func (f *fakeLedgerRepo) LockUserMonth(ctx context.Context, userID string, month time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locks = append(f.locks, ledgerKey(userID, month))
	return nil
}

func (f *fakeLedgerRepo) ListInconsistent(ctx context.Context, month time.Time) ([]string, error) {
	return f.inconsistent, nil
}

type fakeDetailRepo struct {
	mu      sync.Mutex
	details map[string][]hours.HoursDetail
}

func newFakeDetailRepo() *fakeDetailRepo {
	return &fakeDetailRepo{details: make(map[string][]hours.HoursDetail)}
}

func (f *fakeDetailRepo) ListByUserMonth(ctx context.Context, userID string, month time.Time) ([]hours.HoursDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[ledgerKey(userID, month)], nil
}

func (f *fakeDetailRepo) ReplaceForUserMonth(ctx context.Context, userID string, month time.Time, details []hours.HoursDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[ledgerKey(userID, month)] = details
	return nil
}

type fakeExtraRepo struct {
	mu      sync.Mutex
	rows    map[string]hours.ExtraHoursRequest
	creates int
}

func newFakeExtraRepo() *fakeExtraRepo {
	return &fakeExtraRepo{rows: make(map[string]hours.ExtraHoursRequest)}
}

func (f *fakeExtraRepo) Create(ctx context.Context, request hours.ExtraHoursRequest) (hours.ExtraHoursRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.IdempotencyKey != nil {
		for _, r := range f.rows {
			if r.UserID == request.UserID && r.IdempotencyKey != nil && *r.IdempotencyKey == *request.IdempotencyKey {
				return hours.ExtraHoursRequest{}, hours.ErrDuplicateSubmission
			}
		}
	}
	f.creates++
	request.ID = uuid.NewString()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	f.rows[request.ID] = request
	return request, nil
}

func (f *fakeExtraRepo) GetByID(ctx context.Context, id string) (hours.ExtraHoursRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return hours.ExtraHoursRequest{}, hours.ErrExtraHoursNotFound
	}
	return r, nil
}

func (f *fakeExtraRepo) GetByIDForUpdate(ctx context.Context, id string) (hours.ExtraHoursRequest, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeExtraRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (hours.ExtraHoursRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return r, nil
		}
	}
	return hours.ExtraHoursRequest{}, hours.ErrExtraHoursNotFound
}

func (f *fakeExtraRepo) ListByUser(ctx context.Context, userID string, filter hours.MyExtraHoursFilter) ([]hours.ExtraHoursRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []hours.ExtraHoursRequest{}
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeExtraRepo) List(ctx context.Context, filter hours.ExtraHoursFilter) ([]hours.ExtraHoursRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []hours.ExtraHoursRequest{}
	for _, r := range f.rows {
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeExtraRepo) ListApprovedByUserMonth(ctx context.Context, userID string, month time.Time) ([]hours.ExtraHoursRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []hours.ExtraHoursRequest
	for _, r := range f.rows {
		if r.UserID == userID && r.Approved() && hours.FormatMonth(r.WorkDate) == hours.FormatMonth(month) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeExtraRepo) MarkApproved(ctx context.Context, id, approvedBy string, approvedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return hours.ErrExtraHoursNotFound
	}
	if !r.IsPending() {
		return hours.ErrRequestAlreadyProcessed
	}
	r.Status = hours.ExtraHoursStatusApproved
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &approvedAt
	r.UpdatedAt = approvedAt
	f.rows[id] = r
	return nil
}

func (f *fakeExtraRepo) MarkRejected(ctx context.Context, id, rejectedBy string, reason *string, rejectedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return hours.ErrExtraHoursNotFound
	}
	if !r.IsPending() {
		return hours.ErrRequestAlreadyProcessed
	}
	r.Status = hours.ExtraHoursStatusRejected
	r.RejectedBy = &rejectedBy
	r.RejectedAt = &rejectedAt
	r.RejectionReason = reason
	r.UpdatedAt = rejectedAt
	f.rows[id] = r
	return nil
}

func (f *fakeExtraRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeSources struct {
	slots    map[string][]schedule.WeeklySlot
	bookings map[string][]schedule.Session
	events   map[string][]schedule.Session
	active   []string
	failFor  map[string]bool
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		slots:    make(map[string][]schedule.WeeklySlot),
		bookings: make(map[string][]schedule.Session),
		events:   make(map[string][]schedule.Session),
		failFor:  make(map[string]bool),
	}
}

var errSourceUnavailable = errors.New("source unavailable")

func (f *fakeSources) ListWeeklySlots(ctx context.Context, staffID string, from, to time.Time) ([]schedule.WeeklySlot, error) {
	if f.failFor[staffID] {
		return nil, errSourceUnavailable
	}
	return f.slots[staffID], nil
}

func (f *fakeSources) ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]schedule.Session, error) {
	return f.bookings[staffID], nil
}

func (f *fakeSources) ListEvents(ctx context.Context, staffID string, from, to time.Time) ([]schedule.Session, error) {
	return f.events[staffID], nil
}

func (f *fakeSources) ListActiveStaff(ctx context.Context, from, to time.Time) ([]string, error) {
	return f.active, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	requests []notification.CreateNotificationRequest
	err      error
}

func (f *fakeNotifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeNotifier) ofType(t notification.NotificationType) []notification.CreateNotificationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification.CreateNotificationRequest
	for _, r := range f.requests {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

type fakeCache struct {
	mu         sync.Mutex
	users      map[string][]string
	management []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: make(map[string][]string)}
}

func (f *fakeCache) Invalidate(userIDs []string, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		f.users[id] = append(f.users[id], keys...)
	}
}

func (f *fakeCache) InvalidateManagement(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.management = append(f.management, keys...)
}

// allKeys returns every key invalidated for the user or management
func (f *fakeCache) allKeys(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := append([]string{}, f.users[userID]...)
	return append(keys, f.management...)
}

type fakeProfiles struct {
	profiles map[string]user.Profile
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (user.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return user.Profile{}, user.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeProfiles) ListIDsByRole(ctx context.Context, role user.Role) ([]string, error) {
	var ids []string
	for id, p := range f.profiles {
		if p.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
