// internal/session/manager.go

// Package session owns the lobby lifecycle: every mutating operation on
// a lobby runs here, under that lobby's lock, with its events dispatched
// before the lock is released so subscribers observe them in commit
// order.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/auth"
	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/protocol"
)

// Broadcaster pushes frames to live connections. Satisfied by
// dispatch.Dispatcher.
type Broadcaster interface {
	ToLobby(lobbyID uuid.UUID, msg *protocol.ServerMessage)
	ToUser(userID uuid.UUID, msg *protocol.ServerMessage)
}

// Provisioner allocates game-server capacity for a lobby. Satisfied by
// match.Provisioner.
type Provisioner interface {
	Provision(ctx context.Context, lobby *models.Lobby) (*models.Match, error)
}

// Notifier persists a notification for a user and pushes it to their
// live connections. Satisfied by notify.Service.
type Notifier interface {
	Push(ctx context.Context, userID uuid.UUID, kind, title, message string, data any) (*models.Notification, error)
}

// Journal records lobby lifecycle transitions for downstream platform
// subsystems. Satisfied by stream.Journal.
type Journal interface {
	Publish(ctx context.Context, event string, lobby *models.Lobby)
}

// Manager is the lobby state machine. All mutating operations serialize
// per lobby; reads go straight to the store.
type Manager struct {
	store     database.Store
	broadcast Broadcaster
	matches   Provisioner
	notifier  Notifier
	journal   Journal
	locks     *lockTable
}

func NewManager(store database.Store, b Broadcaster, p Provisioner, n Notifier, j Journal) *Manager {
	return &Manager{
		store:     store,
		broadcast: b,
		matches:   p,
		notifier:  n,
		journal:   j,
		locks:     newLockTable(),
	}
}

// CreateParams carries everything a client supplies when opening a lobby.
type CreateParams struct {
	Name       string           `json:"name"`
	GameID     uuid.UUID        `json:"gameId"`
	Type       models.LobbyType `json:"type"`
	MaxPlayers int              `json:"maxPlayers"`
	EntryFee   int64            `json:"entryFee"`
	Password   string           `json:"password,omitempty"`
	Map        string           `json:"map,omitempty"`
	Rules      json.RawMessage  `json:"rules,omitempty"`
}

// JoinParams carries the optional join-time attributes of a member.
type JoinParams struct {
	TeamID   *uuid.UUID `json:"teamId,omitempty"`
	Side     string     `json:"side,omitempty"`
	Password string     `json:"password,omitempty"`
}

// Create opens a new lobby owned by ownerID. The owner becomes the first
// member and is marked ready; the prize pool is seeded with their entry
// fee.
func (m *Manager) Create(ctx context.Context, ownerID uuid.UUID, p CreateParams) (*models.Lobby, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("lobby name is required: %w", ErrInvalidArgument)
	}
	if !models.ValidLobbyType(p.Type) {
		return nil, fmt.Errorf("unknown lobby type %q: %w", p.Type, ErrInvalidArgument)
	}
	if p.MaxPlayers < 2 {
		return nil, fmt.Errorf("maxPlayers must be at least 2: %w", ErrInvalidArgument)
	}
	if p.EntryFee < 0 {
		return nil, fmt.Errorf("entryFee cannot be negative: %w", ErrInvalidArgument)
	}

	owner, err := m.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	var passwordHash string
	if p.Password != "" {
		passwordHash, err = auth.CreateHash(p.Password, auth.Params)
		if err != nil {
			return nil, fmt.Errorf("hash lobby password: %w", err)
		}
	}

	now := time.Now().UTC()
	lobby := &models.Lobby{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(p.Name),
		GameID:         p.GameID,
		OwnerID:        ownerID,
		Type:           p.Type,
		Status:         models.LobbyStatusOpen,
		MaxPlayers:     p.MaxPlayers,
		CurrentPlayers: 1,
		EntryFee:       p.EntryFee,
		PrizePool:      p.EntryFee,
		PasswordHash:   passwordHash,
		HasPassword:    passwordHash != "",
		MapName:        p.Map,
		Rules:          p.Rules,
		CreatedAt:      now,
	}
	member := &models.LobbyMember{
		LobbyID:  lobby.ID,
		UserID:   ownerID,
		Ready:    true,
		JoinedAt: now,
		Username: owner.Username,
	}

	if err := m.store.CreateLobby(ctx, lobby, member); err != nil {
		return nil, mapStoreErr(err)
	}
	m.publish(ctx, "lobby_created", lobby)
	return lobby, nil
}

// Get returns a lobby with its member roster.
func (m *Manager) Get(ctx context.Context, lobbyID uuid.UUID) (*models.Lobby, []models.LobbyMember, error) {
	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	members, err := m.store.ListMembers(ctx, lobbyID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	return lobby, members, nil
}

// List returns lobbies matching the filter, newest first.
func (m *Manager) List(ctx context.Context, f database.LobbyFilter) ([]models.Lobby, error) {
	lobbies, err := m.store.ListLobbies(ctx, f)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return lobbies, nil
}

// Join adds userID to the lobby. Guards run in a fixed order: unknown
// lobby, non-open status, capacity, password, existing membership.
func (m *Manager) Join(ctx context.Context, lobbyID, userID uuid.UUID, p JoinParams) (*models.LobbyMember, error) {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if lobby.Status != models.LobbyStatusOpen {
		return nil, fmt.Errorf("lobby is %s: %w", lobby.Status, ErrInvalidState)
	}
	if lobby.CurrentPlayers >= lobby.MaxPlayers {
		return nil, fmt.Errorf("lobby %s: %w", lobbyID, ErrLobbyFull)
	}
	if lobby.PasswordHash != "" {
		ok, err := auth.ComparePasswordAndHash(p.Password, lobby.PasswordHash)
		if err != nil || !ok {
			return nil, fmt.Errorf("wrong lobby password: %w", ErrForbidden)
		}
	}

	user, err := m.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	member := &models.LobbyMember{
		LobbyID:  lobbyID,
		UserID:   userID,
		TeamID:   p.TeamID,
		Side:     p.Side,
		Ready:    false,
		JoinedAt: time.Now().UTC(),
		Username: user.Username,
	}
	if err := m.store.AddMember(ctx, member); err != nil {
		return nil, mapStoreErr(err)
	}

	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.MemberJoinedEvent(member, lobby.CurrentPlayers+1)))
	return member, nil
}

// SetReady flips a member's ready flag. Readiness only matters while the
// lobby is staging, so any non-open status is rejected before the member
// lookup.
func (m *Manager) SetReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*models.LobbyMember, error) {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if lobby.Status != models.LobbyStatusOpen {
		return nil, fmt.Errorf("lobby is %s: %w", lobby.Status, ErrInvalidState)
	}

	member, err := m.store.SetMemberReady(ctx, lobbyID, userID, ready)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.ReadyStatusChangedEvent(member)))
	return member, nil
}

// Leave removes userID from the lobby. When the owner walks out of an
// open lobby the whole room is cancelled instead; everyone else just
// drops their seat.
func (m *Manager) Leave(ctx context.Context, lobbyID, userID uuid.UUID) error {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return mapStoreErr(err)
	}
	member, err := m.store.GetMember(ctx, lobbyID, userID)
	if err != nil {
		return mapStoreErr(err)
	}

	if userID == lobby.OwnerID && lobby.Status == models.LobbyStatusOpen {
		if err := m.store.SetLobbyStatus(ctx, lobbyID, models.LobbyStatusCancelled); err != nil {
			return mapStoreErr(err)
		}
		lobby.Status = models.LobbyStatusCancelled
		m.publish(ctx, "lobby_cancelled", lobby)

		reason := "owner left the lobby"
		m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
			protocol.LobbyCancelledEvent(reason)))
		m.notifyMembers(ctx, lobby, userID, models.NotificationLobbyCancelled,
			"Lobby cancelled",
			fmt.Sprintf("%q was cancelled: %s.", lobby.Name, reason), nil)
		return nil
	}

	if err := m.store.RemoveMember(ctx, lobbyID, userID); err != nil {
		return mapStoreErr(err)
	}
	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.MemberLeftEvent(member, lobby.CurrentPlayers-1)))
	return nil
}

// SendMessage appends a chat message to the lobby. Chat stays open while
// a match is in progress and closes with the lobby.
func (m *Manager) SendMessage(ctx context.Context, lobbyID, userID uuid.UUID, content string) (*models.LobbyMessage, error) {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if lobby.Status.Terminal() {
		return nil, fmt.Errorf("lobby is %s: %w", lobby.Status, ErrInvalidState)
	}
	member, err := m.store.GetMember(ctx, lobbyID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("not a member of this lobby: %w", ErrForbidden)
		}
		return nil, mapStoreErr(err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message is empty: %w", ErrInvalidArgument)
	}

	msg := &models.LobbyMessage{
		ID:        uuid.New(),
		LobbyID:   lobbyID,
		UserID:    userID,
		Username:  member.Username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.CreateMessage(ctx, msg); err != nil {
		return nil, mapStoreErr(err)
	}

	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.NewMessageEvent(msg)))
	return msg, nil
}

// Messages returns up to limit recent chat messages, oldest first. Only
// members may read the room's history.
func (m *Manager) Messages(ctx context.Context, lobbyID, userID uuid.UUID, limit int) ([]models.LobbyMessage, error) {
	if _, err := m.store.GetLobby(ctx, lobbyID); err != nil {
		return nil, mapStoreErr(err)
	}
	if _, err := m.store.GetMember(ctx, lobbyID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("not a member of this lobby: %w", ErrForbidden)
		}
		return nil, mapStoreErr(err)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	msgs, err := m.store.ListMessages(ctx, lobbyID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return msgs, nil
}

// StartMatch provisions game-server capacity and moves the lobby to
// in_progress. Only the owner may start, everybody must be ready, and
// every member gets a durable notification carrying the same connection
// parameters that subscribers receive over MATCH_STARTED.
func (m *Manager) StartMatch(ctx context.Context, lobbyID, userID uuid.UUID) (*models.Match, error) {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if userID != lobby.OwnerID {
		return nil, fmt.Errorf("only the owner can start the match: %w", ErrForbidden)
	}
	if lobby.Status != models.LobbyStatusOpen {
		return nil, fmt.Errorf("lobby is %s: %w", lobby.Status, ErrInvalidState)
	}
	members, err := m.store.ListMembers(ctx, lobbyID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	for _, member := range members {
		if !member.Ready {
			return nil, fmt.Errorf("%s is not ready: %w", member.Username, ErrNotReady)
		}
	}

	match, err := m.matches.Provision(ctx, lobby)
	if err != nil {
		return nil, fmt.Errorf("provision match: %w", err)
	}
	if err := m.store.SetLobbyStatus(ctx, lobbyID, models.LobbyStatusInProgress); err != nil {
		return nil, mapStoreErr(err)
	}
	lobby.Status = models.LobbyStatusInProgress
	m.publish(ctx, "match_started", lobby)

	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.MatchStartedEvent(match)))
	m.notifyMembers(ctx, lobby, uuid.Nil, models.NotificationMatchStarted,
		"Match started",
		fmt.Sprintf("Your match in %q is ready. %s", lobby.Name, match.Instructions), match)
	return match, nil
}

// Delete removes the lobby and everything scoped to it. Owners may
// delete their own lobbies unless a match is running; admins may always
// delete.
func (m *Manager) Delete(ctx context.Context, lobbyID, requesterID uuid.UUID) error {
	unlock := m.locks.acquire(lobbyID)
	defer unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return mapStoreErr(err)
	}
	requester, err := m.store.GetUserByID(ctx, requesterID)
	if err != nil {
		return mapStoreErr(err)
	}
	if requesterID != lobby.OwnerID && !requester.IsAdmin {
		return fmt.Errorf("only the owner or an admin can delete a lobby: %w", ErrForbidden)
	}
	if lobby.Status == models.LobbyStatusInProgress && !requester.IsAdmin {
		return fmt.Errorf("match in progress: %w", ErrInvalidState)
	}

	if err := m.store.DeleteLobby(ctx, lobbyID); err != nil {
		return mapStoreErr(err)
	}
	lobby.Status = models.LobbyStatusClosed
	m.publish(ctx, "lobby_deleted", lobby)

	m.broadcast.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID,
		protocol.LobbyDeletedEvent("lobby deleted")))
	return nil
}

// notifyMembers sends a durable notification to every member except
// skipUserID. Failures are logged and skipped; a notification must never
// roll back the operation that produced it.
func (m *Manager) notifyMembers(ctx context.Context, lobby *models.Lobby, skipUserID uuid.UUID, kind, title, message string, data any) {
	if m.notifier == nil {
		return
	}
	members, err := m.store.ListMembers(ctx, lobby.ID)
	if err != nil {
		logrus.WithError(err).WithField("lobby_id", lobby.ID).Warn("failed to list members for notification")
		return
	}
	for _, member := range members {
		if member.UserID == skipUserID {
			continue
		}
		if _, err := m.notifier.Push(ctx, member.UserID, kind, title, message, data); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"lobby_id": lobby.ID,
				"user_id":  member.UserID,
			}).Warn("failed to notify member")
		}
	}
}

func (m *Manager) publish(ctx context.Context, event string, lobby *models.Lobby) {
	if m.journal == nil {
		return
	}
	m.journal.Publish(ctx, event, lobby)
}

// mapStoreErr translates persistence sentinels into the session taxonomy
// so callers only ever see session errors.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrInvalidStatus):
		return ErrInvalidState
	case errors.Is(err, database.ErrLobbyFull):
		return ErrLobbyFull
	case errors.Is(err, database.ErrDuplicate):
		return ErrAlreadyMember
	default:
		return err
	}
}
