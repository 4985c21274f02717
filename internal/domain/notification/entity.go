package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeExtraHoursSubmitted    NotificationType = "extra_hours_submitted"
	TypeExtraHoursApproved     NotificationType = "extra_hours_approved"
	TypeExtraHoursRejected     NotificationType = "extra_hours_rejected"
	TypeStaffHoursRecalculated NotificationType = "staff_hours_recalculated"
)

// CacheKeyNotifications is the client cache refreshed when the inbox changes
const CacheKeyNotifications = "notifications"

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeExtraHoursSubmitted,
		TypeExtraHoursApproved,
		TypeExtraHoursRejected,
		TypeStaffHoursRecalculated,
	}
}

// IsValid reports whether t is a known notification type
func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes() {
		if known == t {
			return true
		}
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	RelatedID   *string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
