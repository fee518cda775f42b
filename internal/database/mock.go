// internal/database/mock.go
package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

var _ Store = (*MockStore)(nil)

// MockStore is a testify mock of Store, for tests that need to inject
// failures the in-memory store cannot produce.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateLobby(ctx context.Context, lobby *models.Lobby, owner *models.LobbyMember) error {
	args := m.Called(ctx, lobby, owner)
	return args.Error(0)
}

func (m *MockStore) GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	args := m.Called(ctx, id)
	if l, ok := args.Get(0).(*models.Lobby); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListLobbies(ctx context.Context, f LobbyFilter) ([]models.Lobby, error) {
	args := m.Called(ctx, f)
	if ls, ok := args.Get(0).([]models.Lobby); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SetLobbyStatus(ctx context.Context, id uuid.UUID, status models.LobbyStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) AddMember(ctx context.Context, member *models.LobbyMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockStore) RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error {
	args := m.Called(ctx, lobbyID, userID)
	return args.Error(0)
}

func (m *MockStore) GetMember(ctx context.Context, lobbyID, userID uuid.UUID) (*models.LobbyMember, error) {
	args := m.Called(ctx, lobbyID, userID)
	if mem, ok := args.Get(0).(*models.LobbyMember); ok {
		return mem, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]models.LobbyMember, error) {
	args := m.Called(ctx, lobbyID)
	if ms, ok := args.Get(0).([]models.LobbyMember); ok {
		return ms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*models.LobbyMember, error) {
	args := m.Called(ctx, lobbyID, userID, ready)
	if mem, ok := args.Get(0).(*models.LobbyMember); ok {
		return mem, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateMessage(ctx context.Context, msg *models.LobbyMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStore) ListMessages(ctx context.Context, lobbyID uuid.UUID, limit int) ([]models.LobbyMessage, error) {
	args := m.Called(ctx, lobbyID, limit)
	if msgs, ok := args.Get(0).([]models.LobbyMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateMatch(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockStore) GetMatchByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Match, error) {
	args := m.Called(ctx, lobbyID)
	if match, ok := args.Get(0).(*models.Match); ok {
		return match, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if ns, ok := args.Get(0).([]models.Notification); ok {
		return ns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStore) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
