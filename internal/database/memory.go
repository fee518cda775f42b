// internal/database/memory.go
package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store with the same semantics as PgStore,
// including the guarded counter update in AddMember. Used by tests and by
// local development without a database.
type MemStore struct {
	mu            sync.RWMutex
	lobbies       map[uuid.UUID]*models.Lobby
	members       map[uuid.UUID]map[uuid.UUID]*models.LobbyMember
	messages      map[uuid.UUID][]models.LobbyMessage
	matches       map[uuid.UUID]*models.Match
	notifications map[uuid.UUID][]*models.Notification
	users         map[uuid.UUID]*models.User
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		lobbies:       make(map[uuid.UUID]*models.Lobby),
		members:       make(map[uuid.UUID]map[uuid.UUID]*models.LobbyMember),
		messages:      make(map[uuid.UUID][]models.LobbyMessage),
		matches:       make(map[uuid.UUID]*models.Match),
		notifications: make(map[uuid.UUID][]*models.Notification),
		users:         make(map[uuid.UUID]*models.User),
	}
}

// AddUser seeds an account record. The users relation is external in
// production; tests and dev mode populate it here.
func (s *MemStore) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *MemStore) CreateLobby(ctx context.Context, lobby *models.Lobby, owner *models.LobbyMember) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lobbies[lobby.ID]; ok {
		return fmt.Errorf("lobby %s: %w", lobby.ID, ErrDuplicate)
	}

	l := *lobby
	l.HasPassword = l.PasswordHash != ""
	s.lobbies[l.ID] = &l

	m := *owner
	s.members[l.ID] = map[uuid.UUID]*models.LobbyMember{m.UserID: &m}
	return nil
}

func (s *MemStore) GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lobbies[id]
	if !ok {
		return nil, fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (s *MemStore) ListLobbies(ctx context.Context, f LobbyFilter) ([]models.Lobby, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var lobbies []models.Lobby
	for _, l := range s.lobbies {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.GameID != uuid.Nil && l.GameID != f.GameID {
			continue
		}
		lobbies = append(lobbies, *l)
	}
	sort.Slice(lobbies, func(i, j int) bool {
		return lobbies[i].CreatedAt.After(lobbies[j].CreatedAt)
	})
	return lobbies, nil
}

func (s *MemStore) SetLobbyStatus(ctx context.Context, id uuid.UUID, status models.LobbyStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[id]
	if !ok {
		return fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	l.Status = status
	if status == models.LobbyStatusInProgress && l.StartedAt == nil {
		now := time.Now().UTC()
		l.StartedAt = &now
	}
	return nil
}

func (s *MemStore) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lobbies[id]; !ok {
		return fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	delete(s.messages, id)
	delete(s.members, id)
	delete(s.matches, id)
	delete(s.lobbies, id)
	return nil
}

func (s *MemStore) AddMember(ctx context.Context, m *models.LobbyMember) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[m.LobbyID]
	if !ok {
		return fmt.Errorf("lobby %s: %w", m.LobbyID, ErrNotFound)
	}
	if l.Status != models.LobbyStatusOpen {
		return fmt.Errorf("lobby %s is %s: %w", m.LobbyID, l.Status, ErrInvalidStatus)
	}
	if l.CurrentPlayers >= l.MaxPlayers {
		return fmt.Errorf("lobby %s: %w", m.LobbyID, ErrLobbyFull)
	}
	if _, exists := s.members[m.LobbyID][m.UserID]; exists {
		return fmt.Errorf("user %s in lobby %s: %w", m.UserID, m.LobbyID, ErrDuplicate)
	}

	cp := *m
	if s.members[m.LobbyID] == nil {
		s.members[m.LobbyID] = make(map[uuid.UUID]*models.LobbyMember)
	}
	s.members[m.LobbyID][m.UserID] = &cp
	l.CurrentPlayers++
	l.PrizePool += l.EntryFee
	return nil
}

func (s *MemStore) RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[lobbyID][userID]; !ok {
		return fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
	}
	delete(s.members[lobbyID], userID)

	if l, ok := s.lobbies[lobbyID]; ok {
		l.CurrentPlayers--
		l.PrizePool -= l.EntryFee
		if l.PrizePool < 0 {
			l.PrizePool = 0
		}
	}
	return nil
}

func (s *MemStore) GetMember(ctx context.Context, lobbyID, userID uuid.UUID) (*models.LobbyMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[lobbyID][userID]
	if !ok {
		return nil, fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
	}
	cp := *m
	s.hydrateUsername(&cp)
	return &cp, nil
}

func (s *MemStore) ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]models.LobbyMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []models.LobbyMember
	for _, m := range s.members[lobbyID] {
		cp := *m
		s.hydrateUsername(&cp)
		members = append(members, cp)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID.String() < members[j].UserID.String()
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (s *MemStore) SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*models.LobbyMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[lobbyID][userID]
	if !ok {
		return nil, fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
	}
	m.Ready = ready
	cp := *m
	s.hydrateUsername(&cp)
	return &cp, nil
}

func (s *MemStore) CreateMessage(ctx context.Context, msg *models.LobbyMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.LobbyID] = append(s.messages[msg.LobbyID], *msg)
	return nil
}

func (s *MemStore) ListMessages(ctx context.Context, lobbyID uuid.UUID, limit int) ([]models.LobbyMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[lobbyID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	msgs := make([]models.LobbyMessage, len(all))
	copy(msgs, all)
	for i := range msgs {
		if u, ok := s.users[msgs[i].UserID]; ok {
			msgs[i].Username = u.Username
		}
	}
	return msgs, nil
}

func (s *MemStore) CreateMatch(ctx context.Context, match *models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.LobbyID]; ok {
		return fmt.Errorf("match for lobby %s: %w", match.LobbyID, ErrDuplicate)
	}
	cp := *match
	s.matches[match.LobbyID] = &cp
	return nil
}

func (s *MemStore) GetMatchByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[lobbyID]
	if !ok {
		return nil, fmt.Errorf("match for lobby %s: %w", lobbyID, ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *MemStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

func (s *MemStore) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.notifications[userID]
	var notifs []models.Notification
	for i := len(all) - 1; i >= 0 && len(notifs) < listLimit; i-- {
		if unreadOnly && all[i].Read {
			continue
		}
		notifs = append(notifs, *all[i])
	}
	return notifs, nil
}

func (s *MemStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

func (s *MemStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[userID] {
		n.Read = true
	}
	return nil
}

func (s *MemStore) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.notifications[userID]
	for i, n := range all {
		if n.ID == id {
			s.notifications[userID] = append(all[:i], all[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

func (s *MemStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// hydrateUsername mirrors the users join the Postgres store performs.
// Callers must hold at least the read lock.
func (s *MemStore) hydrateUsername(m *models.LobbyMember) {
	if u, ok := s.users[m.UserID]; ok {
		m.Username = u.Username
	}
}
