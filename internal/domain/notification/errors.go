package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidType          = errors.New("unknown notification type")
)
