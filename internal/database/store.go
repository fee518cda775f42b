// internal/database/store.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// Sentinel errors shared by every Store implementation. The session layer
// maps them onto its caller-facing taxonomy.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate row")
	ErrLobbyFull     = errors.New("lobby full")
	ErrInvalidStatus = errors.New("lobby status does not permit this operation")
)

// LobbyFilter narrows ListLobbies. Zero values mean "any".
type LobbyFilter struct {
	Status models.LobbyStatus
	GameID uuid.UUID
}

// Store is the persistence gateway over the lobby, member, message,
// notification and match relations, plus a read-only view of users.
//
// AddMember is the one write with compare-and-swap semantics: the
// current_players increment is guarded by the max_players bound and the
// open status inside the same transaction as the member insert, so the
// capacity invariant holds even across processes.
type Store interface {
	// Lobbies. CreateLobby persists the lobby together with the owner's
	// member row in one transaction.
	CreateLobby(ctx context.Context, lobby *models.Lobby, owner *models.LobbyMember) error
	GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error)
	ListLobbies(ctx context.Context, f LobbyFilter) ([]models.Lobby, error)
	// SetLobbyStatus also stamps started_at when status becomes in_progress.
	SetLobbyStatus(ctx context.Context, id uuid.UUID, status models.LobbyStatus) error
	// DeleteLobby cascades: messages, members, match, then the lobby row.
	DeleteLobby(ctx context.Context, id uuid.UUID) error

	// Members. AddMember expects a fully formed row (the caller fills
	// Username and JoinedAt); it adjusts current_players and prize_pool.
	AddMember(ctx context.Context, m *models.LobbyMember) error
	RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error
	GetMember(ctx context.Context, lobbyID, userID uuid.UUID) (*models.LobbyMember, error)
	ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]models.LobbyMember, error)
	SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*models.LobbyMember, error)

	// Chat.
	CreateMessage(ctx context.Context, msg *models.LobbyMessage) error
	ListMessages(ctx context.Context, lobbyID uuid.UUID, limit int) ([]models.LobbyMessage, error)

	// Matches.
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatchByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Match, error)

	// Notifications.
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)

	// Users (owned by the accounts service, read-only here).
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
