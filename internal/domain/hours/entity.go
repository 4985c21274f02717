package hours

import (
	"time"
)

// SourceType is the category of activity contributing hours
type SourceType string

const (
	SourceClass     SourceType = "class"
	SourceTutoring  SourceType = "tutoring"
	SourceEvent     SourceType = "event"
	SourceBooking   SourceType = "booking"
	SourceExtra     SourceType = "extra"
	SourceAdventure SourceType = "adventure"
	SourceElective  SourceType = "elective"
)

// AllSourceTypes returns the source types in display order
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceClass,
		SourceTutoring,
		SourceEvent,
		SourceBooking,
		SourceExtra,
		SourceAdventure,
		SourceElective,
	}
}

// IsValid reports whether s is a known source type
func (s SourceType) IsValid() bool {
	for _, t := range AllSourceTypes() {
		if t == s {
			return true
		}
	}
	return false
}

// LedgerEntry is the staff_hours row: one per user and month.
// TotalHours == CalculatedHours + ManualAdjustmentHours after every write.
type LedgerEntry struct {
	ID                    string
	UserID                string
	Month                 time.Time
	CalculatedHours       float64
	ManualAdjustmentHours float64
	TotalHours            float64
	LastCalculatedAt      time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Join
	StaffName *string
}

// HoursDetail is a staff_hours_detail row: one per contributing source per month
type HoursDetail struct {
	ID          string
	UserID      string
	Month       time.Time
	SourceType  SourceType
	SourceID    *string
	SourceTitle string
	Hours       float64
	DayOfWeek   *int
	StartTime   *string // HH:MM
	EndTime     *string // HH:MM
	CreatedAt   time.Time
}

type ExtraHoursStatus string

const (
	ExtraHoursStatusPending  ExtraHoursStatus = "pending"
	ExtraHoursStatusApproved ExtraHoursStatus = "approved"
	ExtraHoursStatusRejected ExtraHoursStatus = "rejected"
)

// IsValid reports whether s is a known request status
func (s ExtraHoursStatus) IsValid() bool {
	switch s {
	case ExtraHoursStatusPending, ExtraHoursStatusApproved, ExtraHoursStatusRejected:
		return true
	}
	return false
}

// ExtraHoursRequest is a staff-submitted manual addition to the ledger
type ExtraHoursRequest struct {
	ID            string
	UserID        string
	Hours         float64
	Justification string
	WorkDate      time.Time
	Status        ExtraHoursStatus // 'pending', 'approved', 'rejected'

	CreatedBy string

	ApprovedBy *string
	ApprovedAt *time.Time

	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason *string

	IdempotencyKey *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Join
	StaffName *string
}

// Approved reports whether the request has been folded into the ledger
func (r ExtraHoursRequest) Approved() bool {
	return r.Status == ExtraHoursStatusApproved
}

// IsPending reports whether the request still awaits a decision
func (r ExtraHoursRequest) IsPending() bool {
	return r.Status == ExtraHoursStatusPending
}
