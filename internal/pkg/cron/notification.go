package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const purgeInterval = 24 * time.Hour

// NotificationPurger deletes read notifications older than a retention window
type NotificationPurger interface {
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

type NotificationJobs struct {
	purger    NotificationPurger
	retention time.Duration
}

func NewNotificationJobs(purger NotificationPurger, retention time.Duration) *NotificationJobs {
	return &NotificationJobs{purger: purger, retention: retention}
}

// RegisterJobs adds the daily purge; a zero retention keeps notifications forever
func (j *NotificationJobs) RegisterJobs(scheduler *Scheduler) {
	if j.retention <= 0 {
		slog.Info("Notification retention disabled, purge job not registered")
		return
	}
	scheduler.Add(Job{
		Name:     "purge_read_notifications",
		Interval: purgeInterval,
		Timeout:  5 * time.Minute,
		Fn:       j.PurgeReadNotifications,
	})
}

func (j *NotificationJobs) PurgeReadNotifications(ctx context.Context) error {
	deleted, err := j.purger.PurgeRead(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}
	if deleted > 0 {
		slog.Info("Cron: read notifications purged", "deleted", deleted, "retention", j.retention)
	}
	return nil
}
