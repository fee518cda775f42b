// internal/notify/notify.go

// Package notify persists user notifications and forwards them to the
// user's live connections. The row is the contract; the push is best
// effort, so users who are offline catch up from the list endpoint.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/protocol"
)

// Pusher delivers frames to a user's live connections. Satisfied by
// dispatch.Dispatcher.
type Pusher interface {
	ToUser(userID uuid.UUID, msg *protocol.ServerMessage)
}

type Service struct {
	store database.Store
	push  Pusher
}

func NewService(store database.Store, push Pusher) *Service {
	return &Service{store: store, push: push}
}

// Push stores a notification and forwards it, along with a fresh unread
// total, to every connection the user has open.
func (s *Service) Push(ctx context.Context, userID uuid.UUID, kind, title, message string, data any) (*models.Notification, error) {
	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode notification data: %w", err)
		}
		payload = b
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	if s.push != nil {
		s.push.ToUser(userID, protocol.NotificationPush(n))
		s.pushUnreadCount(ctx, userID)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

// MarkRead flips one notification to read and re-pushes the unread total
// so any open tab updates its badge.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return err
	}
	s.PushUnreadCount(ctx, userID)
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return err
	}
	s.PushUnreadCount(ctx, userID)
	return nil
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.store.DeleteNotification(ctx, id, userID); err != nil {
		return err
	}
	s.PushUnreadCount(ctx, userID)
	return nil
}

// PushUnreadCount sends the user's current unread total to their live
// connections.
func (s *Service) PushUnreadCount(ctx context.Context, userID uuid.UUID) {
	if s.push == nil {
		return
	}
	s.pushUnreadCount(ctx, userID)
}

func (s *Service) pushUnreadCount(ctx context.Context, userID uuid.UUID) {
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to count unread notifications")
		return
	}
	s.push.ToUser(userID, protocol.UnreadCount(count))
}
