package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

// NotificationRepository manages persistence for notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification. A nil UserID targets every viewer.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO notifications (id, user_id, title, message, severity, is_read, created_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM notifications), $1, $2, $3, $4, $5, $6)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Severity, n.IsRead, n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForUser returns notifications visible to the viewer: their own plus
// broadcasts, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, user_id, title, message, severity, is_read, created_at
        FROM notifications WHERE user_id IS NULL OR user_id = $1
        ORDER BY created_at DESC LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a single notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every notification visible to the viewer as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	const query = `UPDATE notifications SET is_read = true WHERE user_id IS NULL OR user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// ClearForUser deletes the viewer's targeted notifications. Broadcasts stay.
func (r *NotificationRepository) ClearForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
