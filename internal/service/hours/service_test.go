package hours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/schedule"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	*aggregatorFixture
	notifier *fakeNotifier
	cache    *fakeCache
	svc      *Service
}

func newServiceFixture() *serviceFixture {
	agg := newAggregatorFixture()
	f := &serviceFixture{
		aggregatorFixture: agg,
		notifier:          &fakeNotifier{},
		cache:             newFakeCache(),
	}
	profiles := &fakeProfiles{profiles: map[string]user.Profile{
		teacherID: {ID: teacherID, FullName: "Dewi Lestari", Role: user.RoleTeacher},
		tutorID:   {ID: tutorID, FullName: "Budi Santoso", Role: user.RoleTutor},
		adminID:   {ID: adminID, FullName: "Rina Wijaya", Role: user.RoleAdmin},
	}}
	f.svc = NewService(agg.tx, agg.ledger, agg.detail, agg.extra, profiles, agg.agg, f.notifier, f.cache)
	return f
}

func actorCtx(id string, role user.Role) context.Context {
	return user.WithActor(context.Background(), user.Actor{UserID: id, Email: id + "@school.test", Role: role})
}

func teacherCtx() context.Context { return actorCtx(teacherID, user.RoleTeacher) }
func adminCtx() context.Context   { return actorCtx(adminID, user.RoleAdmin) }

func validSubmission() hours.SubmitExtraHoursRequest {
	return hours.SubmitExtraHoursRequest{
		Hours:         2.5,
		Justification: "Covered the science lab after school",
		WorkDate:      "2024-03-12",
	}
}

func TestSubmitExtraHours_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		req   hours.SubmitExtraHoursRequest
		field string
	}{
		{"zero hours", hours.SubmitExtraHoursRequest{Hours: 0, Justification: "Lab"}, "hours"},
		{"negative hours", hours.SubmitExtraHoursRequest{Hours: -1, Justification: "Lab"}, "hours"},
		{"too many hours", hours.SubmitExtraHoursRequest{Hours: 25, Justification: "Lab"}, "hours"},
		{"empty justification", hours.SubmitExtraHoursRequest{Hours: 2, Justification: ""}, "justification"},
		{"blank justification", hours.SubmitExtraHoursRequest{Hours: 2, Justification: "   \t"}, "justification"},
		{"bad work date", hours.SubmitExtraHoursRequest{Hours: 2, Justification: "Lab", WorkDate: "12/03/2024"}, "work_date"},
		{"future work date", hours.SubmitExtraHoursRequest{Hours: 2, Justification: "Lab", WorkDate: time.Now().AddDate(0, 0, 3).Format("2006-01-02")}, "work_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()

			_, created, err := f.svc.SubmitExtraHours(teacherCtx(), tt.req)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
			assert.Contains(t, verrs.ToMap(), tt.field)
			assert.False(t, created)
			assert.Zero(t, f.extra.creates, "repository must not be called")
		})
	}
}

func TestSubmitExtraHours_CreatesPendingRequest(t *testing.T) {
	f := newServiceFixture()

	resp, created, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	assert.True(t, created)
	assert.False(t, resp.Approved)
	assert.Equal(t, string(hours.ExtraHoursStatusPending), resp.Status)
	assert.Equal(t, teacherID, resp.UserID)
	assert.Equal(t, teacherID, resp.CreatedBy)
	assert.Equal(t, "2024-03-12", resp.WorkDate)

	mine, err := f.svc.ListMyExtraHours(teacherCtx(), hours.MyExtraHoursFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, resp.ID, mine[0].ID)

	assert.Subset(t, f.cache.users[teacherID], []string{hours.CacheKeyStaffHours, hours.CacheKeyExtraHours})

	submitted := f.notifier.ofType(notification.TypeExtraHoursSubmitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, adminID, submitted[0].RecipientID)
	assert.Contains(t, submitted[0].Message, "Dewi Lestari")
}

func TestSubmitExtraHours_DefaultsWorkDateToToday(t *testing.T) {
	f := newServiceFixture()
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC) }

	req := validSubmission()
	req.WorkDate = ""
	resp, _, err := f.svc.SubmitExtraHours(teacherCtx(), req)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", resp.WorkDate)
}

func TestSubmitExtraHours_FutureCheckUsesServiceClock(t *testing.T) {
	f := newServiceFixture()
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC) }

	req := validSubmission()
	req.WorkDate = "2024-03-14"
	_, created, err := f.svc.SubmitExtraHours(teacherCtx(), req)
	require.NoError(t, err)
	assert.True(t, created)

	req.WorkDate = "2024-03-15"
	_, _, err = f.svc.SubmitExtraHours(teacherCtx(), req)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	assert.Contains(t, verrs.ToMap(), "work_date")
}

func TestSubmitExtraHours_IdempotencyKeyReplay(t *testing.T) {
	f := newServiceFixture()

	req := validSubmission()
	req.IdempotencyKey = "c1d7a1f0-submit-1"

	first, created, err := f.svc.SubmitExtraHours(teacherCtx(), req)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.SubmitExtraHours(teacherCtx(), req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.extra.creates)

	// keys are scoped per user
	_, created, err = f.svc.SubmitExtraHours(actorCtx(tutorID, user.RoleTutor), req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, f.extra.creates)
}

func TestSubmitExtraHours_StudentIsNotStaff(t *testing.T) {
	f := newServiceFixture()

	_, _, err := f.svc.SubmitExtraHours(actorCtx(studentID, user.RoleStudent), validSubmission())
	assert.ErrorIs(t, err, hours.ErrNotStaff)
	assert.Zero(t, f.extra.creates)
}

func TestSubmitExtraHours_RequiresActor(t *testing.T) {
	f := newServiceFixture()

	_, _, err := f.svc.SubmitExtraHours(context.Background(), validSubmission())
	assert.ErrorIs(t, err, user.ErrActorMissing)
}

func TestSubmitExtraHours_NotificationFailureIsIgnored(t *testing.T) {
	f := newServiceFixture()
	f.notifier.err = errors.New("queue down")

	_, created, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestApproveExtraHours_FoldsIntoLedger(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	approved, err := f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	require.NoError(t, err)

	assert.True(t, approved.Approved)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, adminID, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	ledger, err := f.svc.GetLedger(teacherCtx(), "", "2024-03")
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.Equal(t, 2.5, ledger.ManualAdjustmentHours)
	assert.Equal(t, 2.5, ledger.TotalHours)

	keys := f.cache.allKeys(teacherID)
	assert.Contains(t, keys, hours.CacheKeyExtraHours)
	assert.Contains(t, keys, hours.CacheKeyStaffHours)
	assert.Contains(t, keys, hours.CacheKeyStaffHoursManagement)

	notes := f.notifier.ofType(notification.TypeExtraHoursApproved)
	require.Len(t, notes, 1)
	assert.Equal(t, teacherID, notes[0].RecipientID)
	require.NotNil(t, notes[0].RelatedID)
	assert.Equal(t, submitted.ID, *notes[0].RelatedID)
}

func TestApproveExtraHours_ResponseCarriesDecisionTime(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	decidedAt := submitted.CreatedAt.Add(time.Hour).UTC()
	f.svc.now = func() time.Time { return decidedAt }

	approved, err := f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, decidedAt, *approved.ApprovedAt)
	assert.Equal(t, decidedAt, approved.UpdatedAt)

	stored, err := f.svc.GetExtraHours(teacherCtx(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.UpdatedAt, stored.UpdatedAt)
}

func TestRejectExtraHours_ResponseCarriesDecisionTime(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	decidedAt := submitted.CreatedAt.Add(2 * time.Hour).UTC()
	f.svc.now = func() time.Time { return decidedAt }

	rejected, err := f.svc.RejectExtraHours(adminCtx(), submitted.ID, hours.RejectExtraHoursRequest{})
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectedAt)
	assert.Equal(t, decidedAt, *rejected.RejectedAt)
	assert.Equal(t, decidedAt, rejected.UpdatedAt)
}

func TestApproveExtraHours_SecondApprovalIsRejected(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	first, err := f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	require.NoError(t, err)

	otherAdmin := "7d7b2c1e-4a4f-4c39-9a57-0b3e8f1f2a09"
	_, err = f.svc.ApproveExtraHours(actorCtx(otherAdmin, user.RoleAdmin), submitted.ID)
	assert.ErrorIs(t, err, hours.ErrRequestAlreadyProcessed)

	stored, err := f.extra.GetByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, adminID, *stored.ApprovedBy)
	assert.Equal(t, *first.ApprovedAt, *stored.ApprovedAt)
}

func TestApproveExtraHours_RequiresApprover(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	_, err = f.svc.ApproveExtraHours(teacherCtx(), submitted.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	stored, err := f.extra.GetByID(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPending())
}

func TestApproveExtraHours_UnknownID(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ApproveExtraHours(adminCtx(), "7d7b2c1e-4a4f-4c39-9a57-0b3e8f1fffff")
	assert.ErrorIs(t, err, hours.ErrExtraHoursNotFound)

	_, err = f.svc.ApproveExtraHours(adminCtx(), "not-a-uuid")
	assert.ErrorIs(t, err, hours.ErrExtraHoursNotFound)
}

func TestRejectExtraHours_KeepsAuditTrail(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	reason := "Already counted as a booking"
	rejected, err := f.svc.RejectExtraHours(adminCtx(), submitted.ID, hours.RejectExtraHoursRequest{Reason: &reason})
	require.NoError(t, err)

	assert.Equal(t, string(hours.ExtraHoursStatusRejected), rejected.Status)
	assert.False(t, rejected.Approved)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)

	ledger, err := f.svc.GetLedger(teacherCtx(), "", "2024-03")
	require.NoError(t, err)
	assert.Nil(t, ledger)

	_, err = f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	assert.ErrorIs(t, err, hours.ErrRequestAlreadyProcessed)

	notes := f.notifier.ofType(notification.TypeExtraHoursRejected)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, reason)
}

func TestDeleteExtraHours_RemovesRequest(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExtraHours(teacherCtx(), submitted.ID))

	mine, err := f.svc.ListMyExtraHours(teacherCtx(), hours.MyExtraHoursFilter{})
	require.NoError(t, err)
	for _, r := range mine {
		assert.NotEqual(t, submitted.ID, r.ID)
	}

	all, err := f.svc.ListExtraHours(adminCtx(), hours.ExtraHoursFilter{})
	require.NoError(t, err)
	assert.Zero(t, all.TotalCount)

	// deleting again is a no-op
	assert.NoError(t, f.svc.DeleteExtraHours(teacherCtx(), submitted.ID))
}

func TestDeleteExtraHours_OwnerCannotDeleteApproved(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)
	_, err = f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	require.NoError(t, err)

	err = f.svc.DeleteExtraHours(teacherCtx(), submitted.ID)
	assert.ErrorIs(t, err, hours.ErrRequestAlreadyProcessed)
}

func TestDeleteExtraHours_OtherStaffCannotDelete(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	err = f.svc.DeleteExtraHours(actorCtx(tutorID, user.RoleTutor), submitted.ID)
	assert.ErrorIs(t, err, hours.ErrUnauthorizedAccess)
}

func TestDeleteExtraHours_ApproverDeleteRecomputesLedger(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)
	_, err = f.svc.ApproveExtraHours(adminCtx(), submitted.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExtraHours(adminCtx(), submitted.ID))

	ledger, err := f.svc.GetLedger(teacherCtx(), "", "2024-03")
	require.NoError(t, err)
	require.NotNil(t, ledger)
	assert.Zero(t, ledger.ManualAdjustmentHours)
	assert.Zero(t, ledger.TotalHours)
}

func TestGetExtraHours_Access(t *testing.T) {
	f := newServiceFixture()
	submitted, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
	require.NoError(t, err)

	_, err = f.svc.GetExtraHours(teacherCtx(), submitted.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetExtraHours(adminCtx(), submitted.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetExtraHours(actorCtx(tutorID, user.RoleTutor), submitted.ID)
	assert.ErrorIs(t, err, hours.ErrUnauthorizedAccess)
}

func TestListExtraHours_RequiresViewAll(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ListExtraHours(teacherCtx(), hours.ExtraHoursFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestListExtraHours_Pagination(t *testing.T) {
	f := newServiceFixture()
	for i := 0; i < 3; i++ {
		_, _, err := f.svc.SubmitExtraHours(teacherCtx(), validSubmission())
		require.NoError(t, err)
	}

	resp, err := f.svc.ListExtraHours(adminCtx(), hours.ExtraHoursFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestGetLedger_MissingRowIsNotAnError(t *testing.T) {
	f := newServiceFixture()

	ledger, err := f.svc.GetLedger(teacherCtx(), "", "2024-03")
	require.NoError(t, err)
	assert.Nil(t, ledger)
}

func TestGetLedger_Access(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.GetLedger(teacherCtx(), tutorID, "2024-03")
	assert.ErrorIs(t, err, hours.ErrUnauthorizedAccess)

	_, err = f.svc.GetLedger(adminCtx(), tutorID, "2024-03")
	assert.NoError(t, err)

	_, err = f.svc.GetLedger(actorCtx(studentID, user.RoleStudent), "", "2024-03")
	assert.ErrorIs(t, err, hours.ErrNotStaff)

	_, err = f.svc.GetLedger(teacherCtx(), "", "March")
	assert.ErrorIs(t, err, hours.ErrInvalidMonth)
}

func TestLedgerReads_MalformedUserIDIsNotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.GetLedger(adminCtx(), "abc", "2024-03")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = f.svc.GetDetail(adminCtx(), "abc", "2024-03")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = f.svc.GetLedger(teacherCtx(), "abc", "2024-03")
	assert.ErrorIs(t, err, hours.ErrUnauthorizedAccess)
}

func TestMalformedUserIDFilterIsValidationError(t *testing.T) {
	f := newServiceFixture()
	bad := "abc"

	_, err := f.svc.ListExtraHours(adminCtx(), hours.ExtraHoursFilter{UserID: &bad})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	assert.Equal(t, "user_id must be a valid UUID", verrs.ToMap()["user_id"])

	_, err = f.svc.Recompute(adminCtx(), hours.RecomputeRequest{UserID: &bad, Month: "2024-03"})
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	assert.Equal(t, "user_id must be a valid UUID", verrs.ToMap()["user_id"])
	assert.Empty(t, f.ledger.locks)
}

func TestBuildDetailReport_GroupsAndPercent(t *testing.T) {
	now := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	details := []hours.HoursDetail{
		{SourceType: hours.SourceTutoring, SourceTitle: "Reading club", Hours: 2},
		{SourceType: hours.SourceClass, SourceTitle: "Math 7A", Hours: 3},
		{SourceType: hours.SourceClass, SourceTitle: "Math 7B", Hours: 2},
	}

	report := buildDetailReport(teacherID, march2024, now, details)

	require.Len(t, report.Groups, 2)
	assert.Equal(t, hours.SourceClass, report.Groups[0].SourceType)
	assert.Equal(t, 5.0, report.Groups[0].Total)
	assert.Equal(t, 100.0, report.Groups[0].Percent)
	assert.Len(t, report.Groups[0].Items, 2)
	assert.Equal(t, hours.SourceTutoring, report.Groups[1].SourceType)
	assert.Equal(t, 2.0, report.Groups[1].Total)
	assert.Equal(t, 40.0, report.Groups[1].Percent)
	assert.Equal(t, 7.0, report.Total)

	assert.Equal(t, "2024-03", report.Month)
	assert.Equal(t, "2024-02", report.PrevMonth)
	assert.Equal(t, "2024-04", report.NextMonth)
	assert.False(t, report.CanGoNext, "current month has no next")

	past := buildDetailReport(teacherID, march2024, now.AddDate(0, 1, 0), details)
	assert.True(t, past.CanGoNext)
}

func TestBuildDetailReport_SmallTotalsUseUnitFloor(t *testing.T) {
	details := []hours.HoursDetail{
		{SourceType: hours.SourceEvent, Hours: 0.5},
	}

	report := buildDetailReport(teacherID, march2024, march2024, details)

	require.Len(t, report.Groups, 1)
	assert.Equal(t, 50.0, report.Groups[0].Percent)
}

func TestBuildDetailReport_Empty(t *testing.T) {
	report := buildDetailReport(teacherID, march2024, march2024, nil)

	assert.NotNil(t, report.Groups)
	assert.Empty(t, report.Groups)
	assert.Zero(t, report.Total)
}

func TestGetDetail_AfterRecompute(t *testing.T) {
	f := newServiceFixture()
	f.svc.now = func() time.Time { return time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC) }
	f.sources.events[teacherID] = []schedule.Session{
		{ID: "event-1", Kind: "event", Title: "Sports day", Date: date(2024, time.March, 8), StartMinute: 8 * 60, EndMinute: 12 * 60},
	}

	userID := teacherID
	summary, err := f.svc.Recompute(adminCtx(), hours.RecomputeRequest{UserID: &userID, Month: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Users)
	assert.Len(t, f.notifier.ofType(notification.TypeStaffHoursRecalculated), 1)

	report, err := f.svc.GetDetail(teacherCtx(), "", "2024-03")
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, hours.SourceEvent, report.Groups[0].SourceType)
	assert.Equal(t, 4.0, report.Total)
	assert.True(t, report.CanGoNext)
}

func TestRecompute_RequiresPermission(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Recompute(teacherCtx(), hours.RecomputeRequest{Month: "2024-03"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = f.svc.Reconcile(teacherCtx(), "2024-03")
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestRecompute_AllUsersInvalidatesManagement(t *testing.T) {
	f := newServiceFixture()
	f.sources.active = []string{teacherID, tutorID}

	summary, err := f.svc.Recompute(adminCtx(), hours.RecomputeRequest{Month: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Contains(t, f.cache.management, hours.CacheKeyStaffHoursManagement)
	assert.Contains(t, f.cache.users[tutorID], hours.CacheKeyStaffHours)
}

func TestListLedgers_ManagementView(t *testing.T) {
	f := newServiceFixture()
	f.sources.active = []string{teacherID, tutorID}
	_, err := f.svc.Recompute(adminCtx(), hours.RecomputeRequest{Month: "2024-03"})
	require.NoError(t, err)

	ledgers, err := f.svc.ListLedgers(adminCtx(), "2024-03")
	require.NoError(t, err)
	assert.Len(t, ledgers, 2)

	_, err = f.svc.ListLedgers(teacherCtx(), "2024-03")
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}
