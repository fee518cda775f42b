// internal/notify/notify_test.go
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/protocol"
)

type fakePusher struct {
	mu     sync.Mutex
	frames map[uuid.UUID][]*protocol.ServerMessage
}

func newFakePusher() *fakePusher {
	return &fakePusher{frames: make(map[uuid.UUID][]*protocol.ServerMessage)}
}

func (f *fakePusher) ToUser(userID uuid.UUID, msg *protocol.ServerMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[userID] = append(f.frames[userID], msg)
}

func (f *fakePusher) forUser(userID uuid.UUID) []*protocol.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[userID]
}

func TestPushPersistsAndForwards(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	push := newFakePusher()
	svc := NewService(store, push)
	userID := uuid.New()

	descriptor := map[string]string{"host": "match.local", "code": "K3YF2C"}
	n, err := svc.Push(ctx, userID, models.NotificationMatchStarted, "Match started", "Your match is ready.", descriptor)
	require.NoError(t, err)
	assert.False(t, n.Read)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(n.Data, &decoded))
	assert.Equal(t, "K3YF2C", decoded["code"])

	stored, err := store.ListNotifications(ctx, userID, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)

	frames := push.forUser(userID)
	require.Len(t, frames, 2, "notification frame then unread count")
	assert.Equal(t, protocol.TypeNotification, frames[0].Type)
	require.NotNil(t, frames[0].Notification)
	assert.Equal(t, "Match started", frames[0].Notification.Title)
	assert.Equal(t, protocol.TypeUnreadCount, frames[1].Type)
	require.NotNil(t, frames[1].Count)
	assert.Equal(t, 1, *frames[1].Count)
}

func TestMarkReadRefreshesBadge(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	push := newFakePusher()
	svc := NewService(store, push)
	userID := uuid.New()

	n, err := svc.Push(ctx, userID, models.NotificationLobbyCancelled, "Lobby cancelled", "Owner left.", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, n.ID, userID))

	frames := push.forUser(userID)
	last := frames[len(frames)-1]
	assert.Equal(t, protocol.TypeUnreadCount, last.Type)
	require.NotNil(t, last.Count)
	assert.Equal(t, 0, *last.Count)

	err = svc.MarkRead(ctx, uuid.New(), userID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestPushSurvivesWithoutPusher(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	svc := NewService(store, nil)
	userID := uuid.New()

	_, err := svc.Push(ctx, userID, models.NotificationMatchStarted, "Match started", "ready", nil)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
