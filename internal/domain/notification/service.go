package notification

import (
	"context"
	"time"
)

// Service defines the notification service interface
type Service interface {
	// Queue notification (async processing via background workers)
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error

	// Direct operations
	GetNotifications(ctx context.Context, userID string, filter ListFilter) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error
	// PurgeRead removes read notifications older than the retention window
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)

	// SSE subscription; channels lists extra hub channels (e.g. role:admin)
	Subscribe(ctx context.Context, userID string, channels ...string) (<-chan SSEEvent, func())

	// Lifecycle
	Stop()
}
