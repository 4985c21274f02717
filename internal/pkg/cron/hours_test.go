package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregator struct {
	mu           sync.Mutex
	recomputed   []string
	reconciled   []string
	reconcileErr map[string]error
}

func (f *fakeAggregator) Recompute(ctx context.Context, userID string, month time.Time) (hours.LedgerEntry, error) {
	return hours.LedgerEntry{UserID: userID, Month: month}, nil
}

func (f *fakeAggregator) RecomputeAll(ctx context.Context, month time.Time) (hours.RecomputeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed = append(f.recomputed, hours.FormatMonth(month))
	return hours.RecomputeSummary{Month: hours.FormatMonth(month), Users: 2, UserIDs: []string{"a", "b"}}, nil
}

func (f *fakeAggregator) Reconcile(ctx context.Context, month time.Time) (hours.RecomputeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := hours.FormatMonth(month)
	f.reconciled = append(f.reconciled, key)
	if err := f.reconcileErr[key]; err != nil {
		return hours.RecomputeSummary{}, err
	}
	return hours.RecomputeSummary{Month: key}, nil
}

type recordingCache struct {
	users      []string
	management []string
}

func (c *recordingCache) Invalidate(userIDs []string, keys ...string) {
	c.users = append(c.users, userIDs...)
}

func (c *recordingCache) InvalidateManagement(keys ...string) {
	c.management = append(c.management, keys...)
}

func newTestJobs(agg *fakeAggregator, cache *recordingCache) *HoursJobs {
	j := NewHoursJobs(agg, cache, time.Hour, 6*time.Hour)
	j.now = func() time.Time { return time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC) }
	return j
}

func TestHoursJobs_RecomputeCurrentMonth(t *testing.T) {
	agg := &fakeAggregator{}
	cache := &recordingCache{}

	require.NoError(t, newTestJobs(agg, cache).RecomputeCurrentMonth(context.Background()))

	assert.Equal(t, []string{"2024-01"}, agg.recomputed)
	assert.Equal(t, []string{"a", "b"}, cache.users)
	assert.Equal(t, []string{hours.CacheKeyStaffHoursManagement}, cache.management)
}

func TestHoursJobs_ReconcileCoversPreviousMonth(t *testing.T) {
	agg := &fakeAggregator{}
	cache := &recordingCache{}

	require.NoError(t, newTestJobs(agg, cache).ReconcileStaffHours(context.Background()))

	assert.Equal(t, []string{"2023-12", "2024-01"}, agg.reconciled)
	assert.Empty(t, cache.users)
}

func TestHoursJobs_ReconcileContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	agg := &fakeAggregator{reconcileErr: map[string]error{"2023-12": boom}}

	err := newTestJobs(agg, &recordingCache{}).ReconcileStaffHours(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"2023-12", "2024-01"}, agg.reconciled)
}

func TestScheduler_RunOnce(t *testing.T) {
	agg := &fakeAggregator{}
	s := NewScheduler()
	newTestJobs(agg, &recordingCache{}).RegisterJobs(s)

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []string{"recompute_current_month", "reconcile_staff_hours"}, s.Jobs())
	assert.Len(t, agg.recomputed, 1)
	assert.Len(t, agg.reconciled, 2)
}

func TestScheduler_RunOnceJoinsErrorsAndRecoversPanics(t *testing.T) {
	boom := errors.New("boom")
	var ran []string

	s := NewScheduler()
	s.AddJob("fails", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "fails")
		return boom
	})
	s.AddJob("panics", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "panics")
		panic("nil map")
	})
	s.AddJob("ok", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "ok")
		return nil
	})

	err := s.RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panicked: nil map")
	assert.Equal(t, []string{"fails", "panics", "ok"}, ran)
}

func TestScheduler_JobRunIsBoundedByTimeout(t *testing.T) {
	s := NewScheduler()
	s.Add(Job{
		Name:     "slow",
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := NewScheduler()
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()

	s.AddJob("late", time.Hour, func(ctx context.Context) error { return nil })
	assert.Equal(t, []string{"tick"}, s.Jobs())
}
