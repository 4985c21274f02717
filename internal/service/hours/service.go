package hours

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
)

// Notifier queues in-app notifications
type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
}

type Service struct {
	tx         hours.Transactor
	ledger     hours.LedgerRepository
	detail     hours.DetailRepository
	extra      hours.ExtraHoursRepository
	profiles   user.ProfileRepository
	aggregator hours.Aggregator
	notifier   Notifier
	cache      hours.CacheInvalidator
	now        func() time.Time
}

var _ hours.HoursService = (*Service)(nil)

func NewService(
	tx hours.Transactor,
	ledger hours.LedgerRepository,
	detail hours.DetailRepository,
	extra hours.ExtraHoursRepository,
	profiles user.ProfileRepository,
	aggregator hours.Aggregator,
	notifier Notifier,
	cache hours.CacheInvalidator,
) *Service {
	return &Service{
		tx:         tx,
		ledger:     ledger,
		detail:     detail,
		extra:      extra,
		profiles:   profiles,
		aggregator: aggregator,
		notifier:   notifier,
		cache:      cache,
		now:        time.Now,
	}
}

// authorize returns the caller when their role grants permission
func authorize(ctx context.Context, permission user.Permission) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !actor.Can(permission) {
		return user.Actor{}, user.ErrInsufficientPermissions
	}
	return actor, nil
}

// subject resolves whose hours are read. Empty means the caller.
func subject(ctx context.Context, userID string) (string, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return "", err
	}
	if userID == "" || userID == actor.UserID {
		if !actor.IsStaff() {
			return "", hours.ErrNotStaff
		}
		if !actor.Can(user.PermissionHoursViewOwn) {
			return "", user.ErrInsufficientPermissions
		}
		return actor.UserID, nil
	}
	if !actor.Can(user.PermissionHoursViewAll) {
		return "", hours.ErrUnauthorizedAccess
	}
	if !validator.IsValidUUID(userID) {
		return "", user.ErrUserNotFound
	}
	return userID, nil
}

// ============= Ledger =============

// GetLedger returns nil without error when the month has no ledger row yet
func (s *Service) GetLedger(ctx context.Context, userID string, month string) (*hours.LedgerResponse, error) {
	userID, err := subject(ctx, userID)
	if err != nil {
		return nil, err
	}
	start, err := hours.ParseMonth(month, s.now())
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.GetByUserMonth(ctx, userID, start)
	if err != nil {
		if errors.Is(err, hours.ErrLedgerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staff hours: %w", err)
	}

	resp := toLedgerResponse(entry)
	return &resp, nil
}

func (s *Service) ListLedgers(ctx context.Context, month string) ([]hours.LedgerResponse, error) {
	if _, err := authorize(ctx, user.PermissionHoursViewAll); err != nil {
		return nil, err
	}
	start, err := hours.ParseMonth(month, s.now())
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.ListByMonth(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff hours: %w", err)
	}

	responses := make([]hours.LedgerResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, toLedgerResponse(e))
	}
	return responses, nil
}

func (s *Service) GetDetail(ctx context.Context, userID string, month string) (hours.DetailReportResponse, error) {
	userID, err := subject(ctx, userID)
	if err != nil {
		return hours.DetailReportResponse{}, err
	}
	now := s.now()
	start, err := hours.ParseMonth(month, now)
	if err != nil {
		return hours.DetailReportResponse{}, err
	}

	details, err := s.detail.ListByUserMonth(ctx, userID, start)
	if err != nil {
		return hours.DetailReportResponse{}, fmt.Errorf("failed to list hours detail: %w", err)
	}

	return buildDetailReport(userID, start, now, details), nil
}

// buildDetailReport groups detail rows by source type in display order.
// Percent is relative to the largest group.
func buildDetailReport(userID string, month, now time.Time, details []hours.HoursDetail) hours.DetailReportResponse {
	byType := make(map[hours.SourceType][]hours.HoursDetail)
	for _, d := range details {
		byType[d.SourceType] = append(byType[d.SourceType], d)
	}

	groups := []hours.DetailGroupResponse{}
	maxTotal := 0.0
	for _, t := range hours.AllSourceTypes() {
		rows := byType[t]
		if len(rows) == 0 {
			continue
		}

		group := hours.DetailGroupResponse{SourceType: t}
		for _, d := range rows {
			group.Items = append(group.Items, hours.DetailItemResponse{
				SourceType:  d.SourceType,
				SourceID:    d.SourceID,
				SourceTitle: d.SourceTitle,
				Hours:       d.Hours,
				DayOfWeek:   d.DayOfWeek,
				StartTime:   d.StartTime,
				EndTime:     d.EndTime,
			})
			group.Total += d.Hours
		}
		group.Total = roundHours(group.Total)
		maxTotal = math.Max(maxTotal, group.Total)
		groups = append(groups, group)
	}

	total := 0.0
	for i := range groups {
		groups[i].Percent = roundHours(groups[i].Total / math.Max(maxTotal, 1) * 100)
		total += groups[i].Total
	}

	return hours.DetailReportResponse{
		UserID:    userID,
		Month:     hours.FormatMonth(month),
		PrevMonth: hours.FormatMonth(month.AddDate(0, -1, 0)),
		NextMonth: hours.FormatMonth(month.AddDate(0, 1, 0)),
		CanGoNext: hours.CanNavigateNext(month, now),
		Groups:    groups,
		Total:     roundHours(total),
	}
}

func (s *Service) Recompute(ctx context.Context, req hours.RecomputeRequest) (hours.RecomputeSummary, error) {
	actor, err := authorize(ctx, user.PermissionHoursRecompute)
	if err != nil {
		return hours.RecomputeSummary{}, err
	}
	if err := req.Validate(); err != nil {
		return hours.RecomputeSummary{}, err
	}
	month, err := hours.ParseMonth(req.Month, s.now())
	if err != nil {
		return hours.RecomputeSummary{}, err
	}

	if req.UserID == nil {
		summary, err := s.aggregator.RecomputeAll(ctx, month)
		if err != nil {
			return summary, fmt.Errorf("failed to recompute staff hours: %w", err)
		}
		s.invalidateLedgers(summary.UserIDs)
		return summary, nil
	}

	userID := *req.UserID
	if _, err := s.aggregator.Recompute(ctx, userID, month); err != nil {
		return hours.RecomputeSummary{}, fmt.Errorf("failed to recompute staff hours: %w", err)
	}
	s.invalidateLedgers([]string{userID})

	if userID != actor.UserID {
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: userID,
			SenderID:    &actor.UserID,
			Type:        notification.TypeStaffHoursRecalculated,
			Title:       "Staff hours recalculated",
			Message:     fmt.Sprintf("Your staff hours for %s were recalculated.", hours.FormatMonth(month)),
			Data:        map[string]interface{}{"month": hours.FormatMonth(month)},
		})
	}

	return hours.RecomputeSummary{
		Month:   hours.FormatMonth(month),
		Users:   1,
		UserIDs: []string{userID},
	}, nil
}

func (s *Service) Reconcile(ctx context.Context, month string) (hours.RecomputeSummary, error) {
	if _, err := authorize(ctx, user.PermissionHoursRecompute); err != nil {
		return hours.RecomputeSummary{}, err
	}
	start, err := hours.ParseMonth(month, s.now())
	if err != nil {
		return hours.RecomputeSummary{}, err
	}

	summary, err := s.aggregator.Reconcile(ctx, start)
	if err != nil {
		return summary, fmt.Errorf("failed to reconcile staff hours: %w", err)
	}
	s.invalidateLedgers(summary.UserIDs)
	return summary, nil
}

// ============= Extra hours =============

// SubmitExtraHours reports created=false when the idempotency key was already used
func (s *Service) SubmitExtraHours(ctx context.Context, req hours.SubmitExtraHoursRequest) (hours.ExtraHoursResponse, bool, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return hours.ExtraHoursResponse{}, false, err
	}
	if !actor.IsStaff() {
		return hours.ExtraHoursResponse{}, false, hours.ErrNotStaff
	}
	if !actor.Can(user.PermissionHoursSubmitExtra) {
		return hours.ExtraHoursResponse{}, false, user.ErrInsufficientPermissions
	}

	if err := req.Validate(s.now()); err != nil {
		return hours.ExtraHoursResponse{}, false, err
	}

	var key *string
	if req.IdempotencyKey != "" {
		key = &req.IdempotencyKey
		existing, err := s.extra.GetByIdempotencyKey(ctx, actor.UserID, req.IdempotencyKey)
		if err == nil {
			return toExtraHoursResponse(existing), false, nil
		}
		if !errors.Is(err, hours.ErrExtraHoursNotFound) {
			return hours.ExtraHoursResponse{}, false, fmt.Errorf("failed to check idempotency key: %w", err)
		}
	}

	workDate := truncateDay(s.now())
	if req.WorkDate != "" {
		workDate, _ = validator.IsValidDate(req.WorkDate)
	}

	created, err := s.extra.Create(ctx, hours.ExtraHoursRequest{
		UserID:         actor.UserID,
		Hours:          req.Hours,
		Justification:  req.Justification,
		WorkDate:       workDate,
		Status:         hours.ExtraHoursStatusPending,
		CreatedBy:      actor.UserID,
		IdempotencyKey: key,
	})
	if err != nil {
		if errors.Is(err, hours.ErrDuplicateSubmission) && key != nil {
			// lost a race with a concurrent replay of the same key
			existing, getErr := s.extra.GetByIdempotencyKey(ctx, actor.UserID, *key)
			if getErr == nil {
				return toExtraHoursResponse(existing), false, nil
			}
		}
		return hours.ExtraHoursResponse{}, false, fmt.Errorf("failed to create extra hours request: %w", err)
	}

	s.notifyApprovers(ctx, actor, created)
	s.cache.Invalidate([]string{actor.UserID}, hours.CacheKeyStaffHours, hours.CacheKeyExtraHours)
	s.cache.InvalidateManagement(hours.CacheKeyExtraHours)

	return toExtraHoursResponse(created), true, nil
}

func (s *Service) GetExtraHours(ctx context.Context, id string) (hours.ExtraHoursResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return hours.ExtraHoursResponse{}, hours.ErrExtraHoursNotFound
	}

	req, err := s.extra.GetByID(ctx, id)
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}
	if req.UserID != actor.UserID && !actor.Can(user.PermissionHoursViewAll) {
		return hours.ExtraHoursResponse{}, hours.ErrUnauthorizedAccess
	}

	return toExtraHoursResponse(req), nil
}

func (s *Service) ListMyExtraHours(ctx context.Context, filter hours.MyExtraHoursFilter) ([]hours.ExtraHoursResponse, error) {
	actor, err := authorize(ctx, user.PermissionHoursSubmitExtra)
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	requests, err := s.extra.ListByUser(ctx, actor.UserID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list extra hours requests: %w", err)
	}

	responses := make([]hours.ExtraHoursResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, toExtraHoursResponse(r))
	}
	return responses, nil
}

func (s *Service) ListExtraHours(ctx context.Context, filter hours.ExtraHoursFilter) (hours.ListExtraHoursResponse, error) {
	if _, err := authorize(ctx, user.PermissionHoursViewAll); err != nil {
		return hours.ListExtraHoursResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return hours.ListExtraHoursResponse{}, err
	}

	requests, total, err := s.extra.List(ctx, filter)
	if err != nil {
		return hours.ListExtraHoursResponse{}, fmt.Errorf("failed to list extra hours requests: %w", err)
	}

	responses := make([]hours.ExtraHoursResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, toExtraHoursResponse(r))
	}

	return hours.ListExtraHoursResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Requests:   responses,
	}, nil
}

// ApproveExtraHours marks a pending request approved and folds it into the
// owner's ledger in the same transaction.
func (s *Service) ApproveExtraHours(ctx context.Context, id string) (hours.ExtraHoursResponse, error) {
	actor, err := authorize(ctx, user.PermissionHoursApprove)
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return hours.ExtraHoursResponse{}, hours.ErrExtraHoursNotFound
	}

	var approved hours.ExtraHoursRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.extra.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return hours.ErrRequestAlreadyProcessed
		}

		approvedAt := s.now().UTC()
		if err := s.extra.MarkApproved(ctx, id, actor.UserID, approvedAt); err != nil {
			return err
		}
		req.Status = hours.ExtraHoursStatusApproved
		req.ApprovedBy = &actor.UserID
		req.ApprovedAt = &approvedAt
		req.UpdatedAt = approvedAt

		if _, err := s.aggregator.Recompute(ctx, req.UserID, req.WorkDate); err != nil {
			return fmt.Errorf("failed to update staff hours: %w", err)
		}

		approved = req
		return nil
	})
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: approved.UserID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeExtraHoursApproved,
		Title:       "Extra hours approved",
		Message:     fmt.Sprintf("Your request for %s extra hours was approved.", formatHours(approved.Hours)),
		RelatedID:   &approved.ID,
		Data: map[string]interface{}{
			"hours":     approved.Hours,
			"work_date": approved.WorkDate.Format("2006-01-02"),
		},
	})
	s.invalidateDecision(actor, approved)

	return toExtraHoursResponse(approved), nil
}

// RejectExtraHours marks a pending request rejected; the row is kept for audit
func (s *Service) RejectExtraHours(ctx context.Context, id string, reject hours.RejectExtraHoursRequest) (hours.ExtraHoursResponse, error) {
	actor, err := authorize(ctx, user.PermissionHoursApprove)
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}
	if err := reject.Validate(); err != nil {
		return hours.ExtraHoursResponse{}, err
	}
	if !validator.IsValidUUID(id) {
		return hours.ExtraHoursResponse{}, hours.ErrExtraHoursNotFound
	}

	var rejected hours.ExtraHoursRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.extra.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return hours.ErrRequestAlreadyProcessed
		}

		rejectedAt := s.now().UTC()
		if err := s.extra.MarkRejected(ctx, id, actor.UserID, reject.Reason, rejectedAt); err != nil {
			return err
		}
		req.Status = hours.ExtraHoursStatusRejected
		req.RejectedBy = &actor.UserID
		req.RejectedAt = &rejectedAt
		req.UpdatedAt = rejectedAt
		req.RejectionReason = reject.Reason

		rejected = req
		return nil
	})
	if err != nil {
		return hours.ExtraHoursResponse{}, err
	}

	message := fmt.Sprintf("Your request for %s extra hours was rejected.", formatHours(rejected.Hours))
	if reject.Reason != nil && !validator.IsEmpty(*reject.Reason) {
		message += " Reason: " + *reject.Reason
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: rejected.UserID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeExtraHoursRejected,
		Title:       "Extra hours rejected",
		Message:     message,
		RelatedID:   &rejected.ID,
	})
	s.invalidateDecision(actor, rejected)

	return toExtraHoursResponse(rejected), nil
}

// DeleteExtraHours removes a request permanently. Owners may only delete
// pending requests; approvers may delete any. Missing ids are not an error.
func (s *Service) DeleteExtraHours(ctx context.Context, id string) error {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if !validator.IsValidUUID(id) {
		return nil
	}

	var deleted *hours.ExtraHoursRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.extra.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, hours.ErrExtraHoursNotFound) {
				return nil
			}
			return err
		}

		if !actor.Can(user.PermissionHoursApprove) {
			if req.UserID != actor.UserID {
				return hours.ErrUnauthorizedAccess
			}
			if !req.IsPending() {
				return hours.ErrRequestAlreadyProcessed
			}
		}

		if err := s.extra.Delete(ctx, id); err != nil {
			return err
		}
		if req.Approved() {
			if _, err := s.aggregator.Recompute(ctx, req.UserID, req.WorkDate); err != nil {
				return fmt.Errorf("failed to update staff hours: %w", err)
			}
		}

		deleted = &req
		return nil
	})
	if err != nil {
		return err
	}

	if deleted != nil {
		s.invalidateDecision(actor, *deleted)
	}
	return nil
}

// ============= Side effects =============

// notify is fire-and-forget: failures are logged, never returned
func (s *Service) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Warn("Failed to queue notification",
			"type", string(req.Type),
			"recipient_id", req.RecipientID,
			"error", err,
		)
	}
}

func (s *Service) notifyApprovers(ctx context.Context, actor user.Actor, req hours.ExtraHoursRequest) {
	if s.profiles == nil {
		return
	}
	approvers, err := s.profiles.ListIDsByRole(ctx, user.RoleAdmin)
	if err != nil {
		slog.Warn("Failed to list approvers", "error", err)
		return
	}

	name := actor.Email
	if profile, err := s.profiles.GetByID(ctx, actor.UserID); err == nil {
		name = profile.FullName
	}

	for _, approverID := range approvers {
		if approverID == actor.UserID {
			continue
		}
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: approverID,
			SenderID:    &actor.UserID,
			Type:        notification.TypeExtraHoursSubmitted,
			Title:       "Extra hours submitted",
			Message:     fmt.Sprintf("%s submitted %s extra hours for approval.", name, formatHours(req.Hours)),
			RelatedID:   &req.ID,
			Data: map[string]interface{}{
				"hours":     req.Hours,
				"work_date": req.WorkDate.Format("2006-01-02"),
			},
		})
	}
}

func (s *Service) invalidateDecision(actor user.Actor, req hours.ExtraHoursRequest) {
	userIDs := []string{req.UserID}
	if actor.UserID != req.UserID {
		userIDs = append(userIDs, actor.UserID)
	}
	s.cache.Invalidate(userIDs, hours.CacheKeyExtraHours, hours.CacheKeyStaffHours)
	s.cache.InvalidateManagement(hours.CacheKeyExtraHours, hours.CacheKeyStaffHoursManagement)
}

func (s *Service) invalidateLedgers(userIDs []string) {
	if len(userIDs) > 0 {
		s.cache.Invalidate(userIDs, hours.CacheKeyStaffHours)
	}
	s.cache.InvalidateManagement(hours.CacheKeyStaffHoursManagement)
}

// ============= Mapping =============

func toLedgerResponse(e hours.LedgerEntry) hours.LedgerResponse {
	return hours.LedgerResponse{
		UserID:                e.UserID,
		StaffName:             e.StaffName,
		Month:                 hours.FormatMonth(e.Month),
		CalculatedHours:       e.CalculatedHours,
		ManualAdjustmentHours: e.ManualAdjustmentHours,
		TotalHours:            e.TotalHours,
		LastCalculatedAt:      e.LastCalculatedAt,
	}
}

func toExtraHoursResponse(r hours.ExtraHoursRequest) hours.ExtraHoursResponse {
	return hours.ExtraHoursResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		StaffName:       r.StaffName,
		Hours:           r.Hours,
		Justification:   r.Justification,
		WorkDate:        r.WorkDate.Format("2006-01-02"),
		Status:          string(r.Status),
		Approved:        r.Approved(),
		CreatedBy:       r.CreatedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func formatHours(h float64) string {
	return fmt.Sprintf("%g", roundHours(h))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
