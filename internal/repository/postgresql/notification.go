package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/database"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

var notificationInsertColumns = []string{
	"id", "recipient_id", "sender_id", "type", "title",
	"message", "related_id", "data", "is_read", "created_at",
}

const notificationColumns = `id, recipient_id, sender_id, type, title, message, related_id, data, is_read, read_at, created_at`

// insertValues fills defaults on n and returns its row for notificationInsertColumns
func insertValues(n *notification.Notification) ([]interface{}, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var data []byte
	if n.Data != nil {
		encoded, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		data = encoded
	}

	return []interface{}{
		n.ID,
		n.RecipientID,
		n.SenderID,
		string(n.Type),
		n.Title,
		n.Message,
		n.RelatedID,
		data,
		n.IsRead,
		n.CreatedAt,
	}, nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var notifType string
	var data []byte

	if err := row.Scan(
		&n.ID, &n.RecipientID, &n.SenderID, &notifType, &n.Title, &n.Message,
		&n.RelatedID, &data, &n.IsRead, &n.ReadAt, &n.CreatedAt,
	); err != nil {
		return nil, err
	}

	n.Type = notification.NotificationType(notifType)
	if data != nil {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

// Create inserts one notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	values, err := insertValues(n)
	if err != nil {
		return err
	}

	query, args := multiRowInsert("notifications", notificationInsertColumns, [][]interface{}{values})
	if _, err := GetQuerier(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch inserts every notification in one statement
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(notifications))
	for _, n := range notifications {
		values, err := insertValues(n)
		if err != nil {
			return err
		}
		rows = append(rows, values)
	}

	query, args := multiRowInsert("notifications", notificationInsertColumns, rows)
	if _, err := GetQuerier(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// ListByRecipient returns one page of the recipient's inbox, newest first
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter notification.ListFilter) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, r.db)
	filter = filter.Normalize()

	whereClauses := []string{"recipient_id = $1"}
	args := []interface{}{recipientID}
	argIdx := 2

	if filter.UnreadOnly {
		whereClauses = append(whereClauses, "is_read = FALSE")
	}
	if filter.Type != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, string(*filter.Type))
		argIdx++
	}
	where := strings.Join(whereClauses, " AND ")

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, notificationColumns, where, argIdx, argIdx+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, total, nil
}

// GetUnreadCount counts the recipient's unread notifications
func (r *notificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := GetQuerier(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks the recipient's notifications among ids as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validator.IsValidUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	result, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND id = ANY($2::uuid[]) AND is_read = FALSE`,
		recipientID, valid,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.RowsAffected(), nil
}

// MarkAllAsRead marks every unread notification of the recipient as read
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	result, err := GetQuerier(ctx, r.db).Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return result.RowsAffected(), nil
}

// Delete removes one of the recipient's notifications
func (r *notificationRepository) Delete(ctx context.Context, recipientID string, id string) error {
	if !validator.IsValidUUID(id) {
		return notification.ErrNotificationNotFound
	}

	result, err := GetQuerier(ctx, r.db).Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// DeleteReadBefore purges read notifications created before cutoff
func (r *notificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := GetQuerier(ctx, r.db).Exec(ctx,
		`DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.RowsAffected(), nil
}
