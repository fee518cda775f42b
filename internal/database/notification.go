// internal/database/notification.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// listLimit bounds notification listings; older entries are reachable only
// after the newer ones are dismissed.
const listLimit = 100

// CreateNotification persists a durable per-user event record.
func (s *PgStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	q := `
	INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Data, n.Read, n.CreatedAt)
		return err
	})
}

// ListNotifications returns the user's notifications, newest first.
func (s *PgStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	q := `
	SELECT id, user_id, type, title, message, data, is_read, created_at
	FROM notifications
	WHERE user_id = $1
	`
	if unreadOnly {
		q += " AND is_read = false"
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", listLimit)

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkNotificationRead flips the read flag. The user_id predicate keeps
// users from touching records that are not theirs.
func (s *PgStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead clears the user's unread set.
func (s *PgStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	return err
}

// DeleteNotification removes one record owned by the user.
func (s *PgStore) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountUnreadNotifications returns the user's unread badge count.
func (s *PgStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	return count, err
}
