package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/sse"
	"github.com/google/uuid"
)

const flushTimeout = 30 * time.Second

// Config sizes the write-behind queue; zero values take the defaults below
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1000
	}
	return c
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub
	config Config

	queue    chan *notification.Notification
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService starts cfg.WorkerCount writers draining the queue into repo.
// Rows are published to the hub only after they are committed.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) notification.Service {
	cfg = cfg.withDefaults()

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		queue:  make(chan *notification.Notification, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval.String(),
	)

	return s
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]*notification.Notification, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case n := <-s.queue:
			batch = append(batch, n)
			if len(batch) >= s.config.BatchSize {
				batch = s.flush(id, batch)
			}
		case <-ticker.C:
			batch = s.flush(id, batch)
		case <-s.stopCh:
			for {
				select {
				case n := <-s.queue:
					batch = append(batch, n)
				default:
					s.flush(id, batch)
					return
				}
			}
		}
	}
}

// flush writes batch in one insert and returns it emptied for reuse.
// A failed insert drops the batch; nothing is published for it.
func (s *service) flush(worker int, batch []*notification.Notification) []*notification.Notification {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		slog.Error("Failed to batch insert notifications", "worker", worker, "count", len(batch), "error", err)
	} else {
		slog.Debug("Notifications inserted", "worker", worker, "count", len(batch))
		for _, n := range batch {
			s.publish(n)
		}
	}

	for i := range batch {
		batch[i] = nil
	}
	return batch[:0]
}

// QueueNotification validates req and hands it to the writers.
// When the queue is full the row is written synchronously instead.
func (s *service) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	if req.RecipientID == "" {
		return fmt.Errorf("queue notification: recipient is required")
	}
	if !req.Type.IsValid() {
		return notification.ErrInvalidType
	}

	n := newNotification(req)
	select {
	case s.queue <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.Warn("Notification queue full, inserting directly", "recipient_id", req.RecipientID, "type", req.Type)
		return s.directInsert(ctx, n)
	}
}

func (s *service) directInsert(ctx context.Context, n *notification.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(n)
	return nil
}

// publish reuses the row ID as the SSE event ID
func (s *service) publish(n *notification.Notification) {
	s.hub.Publish(n.RecipientID, sse.Event{
		ID:    n.ID,
		Event: sse.EventNotification,
		Data:  toResponse(n),
	})
}

func newNotification(req notification.CreateNotificationRequest) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		RelatedID:   req.RelatedID,
		Data:        req.Data,
		CreatedAt:   time.Now(),
	}
}

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// GetNotifications returns one page of the user's inbox with the unread total
func (s *service) GetNotifications(ctx context.Context, userID string, filter notification.ListFilter) (*notification.NotificationListResponse, error) {
	filter = filter.Normalize()
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, notification.ErrInvalidType
	}

	notifications, total, err := s.repo.ListByRecipient(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          filter.Page,
		PageSize:      filter.PageSize,
	}, nil
}

func (s *service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks the listed notifications read and refreshes the user's other tabs
func (s *service) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	updated, err := s.repo.MarkAsRead(ctx, userID, req.NotificationIDs)
	if err != nil {
		return err
	}
	if updated > 0 {
		s.hub.Invalidate([]string{userID}, notification.CacheKeyNotifications)
	}
	return nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) error {
	updated, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return err
	}
	if updated > 0 {
		s.hub.Invalidate([]string{userID}, notification.CacheKeyNotifications)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID string, notificationID string) error {
	if err := s.repo.Delete(ctx, userID, notificationID); err != nil {
		return err
	}
	s.hub.Invalidate([]string{userID}, notification.CacheKeyNotifications)
	return nil
}

// PurgeRead removes read notifications older than retention
func (s *service) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteReadBefore(ctx, time.Now().Add(-retention))
}

// Subscribe creates an SSE subscription for a user plus any shared channels
func (s *service) Subscribe(ctx context.Context, userID string, channels ...string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(append([]string{userID}, channels...)...)
	slog.Debug("SSE subscriber connected", "user_id", userID, "connections", s.hub.TotalSubscribers())

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				switch event.Data.(type) {
				case notification.NotificationResponse, sse.InvalidatePayload:
				default:
					continue
				}
				select {
				case out <- notification.SSEEvent{ID: event.ID, Event: event.Event, Data: event.Data}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop gracefully stops the notification service
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}
