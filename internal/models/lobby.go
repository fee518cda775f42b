// internal/models/lobby.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LobbyStatus is the lifecycle state of a lobby. Transitions are owned by
// the session manager: open -> in_progress -> completed, open -> cancelled,
// and open|in_progress -> closed (explicit deletion).
type LobbyStatus string

const (
	LobbyStatusOpen       LobbyStatus = "open"
	LobbyStatusInProgress LobbyStatus = "in_progress"
	LobbyStatusCompleted  LobbyStatus = "completed"
	LobbyStatusCancelled  LobbyStatus = "cancelled"
	LobbyStatusClosed     LobbyStatus = "closed"
)

// Terminal reports whether no further state transitions are possible.
func (s LobbyStatus) Terminal() bool {
	return s == LobbyStatusCompleted || s == LobbyStatusCancelled || s == LobbyStatusClosed
}

// LobbyType distinguishes free-for-all lobbies from team-based ones.
type LobbyType string

const (
	LobbyTypeSolo LobbyType = "solo"
	LobbyTypeTeam LobbyType = "team"
)

// ValidLobbyType reports whether t is one of the recognized lobby types.
func ValidLobbyType(t LobbyType) bool {
	return t == LobbyTypeSolo || t == LobbyTypeTeam
}

// Lobby is a pre-match staging room with bounded membership.
//
// CurrentPlayers is persisted redundantly and must always equal the number
// of LobbyMember rows; the store enforces the maxPlayers bound on insert.
type Lobby struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	GameID         uuid.UUID   `json:"gameId"`
	OwnerID        uuid.UUID   `json:"ownerId"`
	Type           LobbyType   `json:"type"`
	Status         LobbyStatus `json:"status"`
	MaxPlayers     int         `json:"maxPlayers"`
	CurrentPlayers int         `json:"currentPlayers"`
	EntryFee       int64       `json:"entryFee"`
	PrizePool      int64       `json:"prizePool"`

	// PasswordHash is the argon2id hash of the join password, empty for
	// lobbies anyone may join. Never serialized; HasPassword is what
	// clients see.
	PasswordHash string `json:"-"`
	HasPassword  bool   `json:"hasPassword"`

	MapName string          `json:"map,omitempty"`
	Rules   json.RawMessage `json:"rules,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

// LobbyMember is one user's participation record in a lobby.
// At most one row exists per (lobbyId, userId).
type LobbyMember struct {
	LobbyID  uuid.UUID  `json:"lobbyId"`
	UserID   uuid.UUID  `json:"userId"`
	TeamID   *uuid.UUID `json:"teamId,omitempty"`
	Side     string     `json:"side,omitempty"`
	Ready    bool       `json:"ready"`
	JoinedAt time.Time  `json:"joinedAt"`

	// Username is denormalized from the users relation for display.
	Username string `json:"username"`
}

// LobbyMessage is a chat entry scoped to one lobby. Immutable once created;
// removed only when its lobby is deleted.
type LobbyMessage struct {
	ID        uuid.UUID `json:"id"`
	LobbyID   uuid.UUID `json:"lobbyId"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
