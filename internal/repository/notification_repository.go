package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusqa/campus-qa-api/internal/models"
)

// NotificationRepository provides database access for per-recipient
// notification rows.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts one row per recipient for the same event. A nil or
// empty recipient list is a no-op.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notification *models.Notification, recipientIDs []string) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	rows := make([]models.Notification, 0, len(recipientIDs))
	now := time.Now().UTC()
	for _, recipientID := range recipientIDs {
		row := *notification
		row.ID = uuid.NewString()
		row.RecipientID = recipientID
		row.CreatedAt = now
		rows = append(rows, row)
	}

	const query = `INSERT INTO notifications (id, recipient_id, type, title, message, related_id, related_type, is_read, created_at)
		VALUES (:id, :recipient_id, :type, :title, :message, :related_id, :related_type, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications newest first, plus
// the total and unread counts.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT id, recipient_id, type, title, message, related_id, related_type, is_read, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID); err != nil {
		return nil, 0, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1`, recipientID); err != nil {
		return nil, 0, 0, fmt.Errorf("count notifications: %w", err)
	}
	var unread int
	if err := r.db.GetContext(ctx, &unread, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID); err != nil {
		return nil, 0, 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return notifications, total, unread, nil
}

// MarkRead flags a single notification as read. Only the owning recipient's
// row matches; anyone else gets sql.ErrNoRows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, recipientID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes a notification owned by the recipient.
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
