package notification

import (
	"context"
	"time"
)

// Repository persists notifications rows
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int, error)
	// MarkAsRead ignores ids that are malformed or belong to someone else
	MarkAsRead(ctx context.Context, recipientID string, ids []string) (int64, error)
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, recipientID string, id string) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
