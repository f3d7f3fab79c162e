package repositories

import (
	"context"
	"fmt"

	"github.com/fitstreak/backend/internal/db"
	"github.com/fitstreak/backend/internal/models"
)

// PostgresNotificationRepository provides PostgreSQL-backed persistence for
// in-app notifications.
type PostgresNotificationRepository struct {
	pool db.Pool
}

// NewPostgresNotificationRepository constructs a notification repository backed by PostgreSQL.
func NewPostgresNotificationRepository(pool db.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create persists a notification.
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification models.Notification) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO notifications (id, user_id, message, from_user_id, from_username, kind, read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, notification.ID, notification.UserID, notification.Message, notification.FromUserID, notification.FromUsername, notification.Kind, notification.Read, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// ListForUser returns the user's notifications, newest first.
func (r *PostgresNotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT id, user_id, message, from_user_id, from_username, kind, read, created_at
        FROM notifications
        WHERE user_id = $1
    `
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.FromUserID, &n.FromUsername, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE notifications
        SET read = TRUE
        WHERE id = $1 AND user_id = $2
    `, notificationID, userID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllRead flags every unread notification for the user in one statement.
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE notifications
        SET read = TRUE
        WHERE user_id = $1 AND read = FALSE
    `, userID); err != nil {
		return fmt.Errorf("update notifications: %w", err)
	}

	return nil
}
