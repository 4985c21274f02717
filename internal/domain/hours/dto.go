package hours

import (
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
)

const (
	MaxHoursPerRequest     = 24
	MaxJustificationLength = 1000
	MaxRejectionReason     = 500
)

// SubmitExtraHoursRequest is a staff member's claim for hours outside the schedule
type SubmitExtraHoursRequest struct {
	Hours         float64 `json:"hours"`
	Justification string  `json:"justification"`
	WorkDate      string  `json:"work_date,omitempty"` // YYYY-MM-DD, defaults to today

	// From the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// Validate checks the claim; work dates after now's calendar day are rejected
func (r *SubmitExtraHoursRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	if r.Hours <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "hours",
			Message: "hours must be greater than 0",
		})
	}
	if r.Hours > MaxHoursPerRequest {
		errs = append(errs, validator.ValidationError{
			Field:   "hours",
			Message: "hours must not exceed " + validator.Itoa(MaxHoursPerRequest),
		})
	}

	if validator.IsEmpty(r.Justification) {
		errs = append(errs, validator.ValidationError{
			Field:   "justification",
			Message: "justification is required",
		})
	}
	if validator.ExceedsLength(r.Justification, MaxJustificationLength) {
		errs = append(errs, validator.ValidationError{
			Field:   "justification",
			Message: "justification must not exceed " + validator.Itoa(MaxJustificationLength) + " characters",
		})
	}

	if r.WorkDate != "" {
		date, ok := validator.IsValidDate(r.WorkDate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "work_date",
				Message: "work_date must be in YYYY-MM-DD format",
			})
		} else if date.After(now.UTC()) {
			errs = append(errs, validator.ValidationError{
				Field:   "work_date",
				Message: "work_date must not be in the future",
			})
		}
	}

	if validator.ExceedsLength(r.IdempotencyKey, 255) {
		errs = append(errs, validator.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency_key must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// RejectExtraHoursRequest carries the optional reason shown to the staff member
type RejectExtraHoursRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (r *RejectExtraHoursRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Reason != nil && validator.ExceedsLength(*r.Reason, MaxRejectionReason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed " + validator.Itoa(MaxRejectionReason) + " characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ExtraHoursFilter is the approver's view over all requests
type ExtraHoursFilter struct {
	Status *string `json:"status,omitempty"`
	UserID *string `json:"user_id,omitempty"`
	Month  *string `json:"month,omitempty"` // YYYY-MM

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ExtraHoursFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !ExtraHoursStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected",
		})
	}

	if f.UserID != nil {
		if err := validateUserID(*f.UserID); err != nil {
			errs = append(errs, *err)
		}
	}

	if f.Month != nil {
		if _, err := ParseMonth(*f.Month, time.Now()); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "month",
				Message: "month must be in YYYY-MM format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// MyExtraHoursFilter is the staff member's view over their own requests
type MyExtraHoursFilter struct {
	Status *string `json:"status,omitempty"`
}

func (f *MyExtraHoursFilter) Validate() error {
	if f.Status != nil && !ExtraHoursStatus(*f.Status).IsValid() {
		return validator.ValidationErrors{{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected",
		}}
	}
	return nil
}

// RecomputeRequest asks the aggregation engine to rebuild one user's month, or everyone's
type RecomputeRequest struct {
	UserID *string `json:"user_id,omitempty"`
	Month  string  `json:"month"`
}

func (r *RecomputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UserID != nil {
		if err := validateUserID(*r.UserID); err != nil {
			errs = append(errs, *err)
		}
	}
	if _, err := ParseMonth(r.Month, time.Now()); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateUserID(id string) *validator.ValidationError {
	switch {
	case validator.IsEmpty(id):
		return &validator.ValidationError{Field: "user_id", Message: "user_id must not be empty"}
	case !validator.IsValidUUID(id):
		return &validator.ValidationError{Field: "user_id", Message: "user_id must be a valid UUID"}
	}
	return nil
}

// ============= Response DTOs =============

type LedgerResponse struct {
	UserID                string    `json:"user_id"`
	StaffName             *string   `json:"staff_name,omitempty"`
	Month                 string    `json:"month"`
	CalculatedHours       float64   `json:"calculated_hours"`
	ManualAdjustmentHours float64   `json:"manual_adjustment_hours"`
	TotalHours            float64   `json:"total_hours"`
	LastCalculatedAt      time.Time `json:"last_calculated_at"`
}

type ExtraHoursResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	StaffName       *string    `json:"staff_name,omitempty"`
	Hours           float64    `json:"hours"`
	Justification   string     `json:"justification"`
	WorkDate        string     `json:"work_date"`
	Status          string     `json:"status"`
	Approved        bool       `json:"approved"`
	CreatedBy       string     `json:"created_by"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ListExtraHoursResponse struct {
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
	Requests   []ExtraHoursResponse `json:"requests"`
}

type DetailItemResponse struct {
	SourceType  SourceType `json:"source_type"`
	SourceID    *string    `json:"source_id,omitempty"`
	SourceTitle string     `json:"source_title"`
	Hours       float64    `json:"hours"`
	DayOfWeek   *int       `json:"day_of_week,omitempty"`
	StartTime   *string    `json:"start_time,omitempty"`
	EndTime     *string    `json:"end_time,omitempty"`
}

type DetailGroupResponse struct {
	SourceType SourceType           `json:"source_type"`
	Items      []DetailItemResponse `json:"items"`
	Total      float64              `json:"total"`
	Percent    float64              `json:"percent"`
}

// DetailReportResponse is the month view grouped by source type
type DetailReportResponse struct {
	UserID    string                `json:"user_id"`
	Month     string                `json:"month"`
	PrevMonth string                `json:"prev_month"`
	NextMonth string                `json:"next_month"`
	CanGoNext bool                  `json:"can_go_next"`
	Groups    []DetailGroupResponse `json:"groups"`
	Total     float64               `json:"total"`
}

type RecomputeSummary struct {
	Month   string   `json:"month"`
	Users   int      `json:"users"`
	UserIDs []string `json:"user_ids,omitempty"`
	Failed  []string `json:"failed,omitempty"`
}
