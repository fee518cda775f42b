// internal/protocol/protocol.go
package protocol

import (
	"github.com/google/uuid"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// Client -> server frame types.
const (
	TypeAuth             = "auth"
	TypeSubscribeLobby   = "subscribe_lobby"
	TypeUnsubscribeLobby = "unsubscribe_lobby"
	TypeTyping           = "typing"
)

// Server -> client frame types.
const (
	TypeAuthSuccess       = "auth_success"
	TypeUnreadCount       = "unread_count"
	TypeLobbySubscribed   = "lobby_subscribed"
	TypeLobbyUnsubscribed = "lobby_unsubscribed"
	TypeNotification      = "notification"
	TypeLobbyUpdate       = "lobby_update"
	TypeError             = "error"
)

// Action discriminates lobby_update payloads.
type Action string

const (
	ActionSubscribed         Action = "SUBSCRIBED"
	ActionTyping             Action = "TYPING"
	ActionMemberJoined       Action = "MEMBER_JOINED"
	ActionMemberLeft         Action = "MEMBER_LEFT"
	ActionReadyStatusChanged Action = "READY_STATUS_CHANGED"
	ActionNewMessage         Action = "NEW_MESSAGE"
	ActionMatchStarted       Action = "MATCH_STARTED"
	ActionLobbyCancelled     Action = "LOBBY_CANCELLED"
	ActionLobbyDeleted       Action = "LOBBY_DELETED"
)

// ClientMessage is the envelope for every frame a client sends. Which
// fields are meaningful depends on Type. The userId carried by typing
// frames is advisory only; the server always uses the identity bound to
// the connection.
type ClientMessage struct {
	Type     string    `json:"type"`
	Token    string    `json:"token"`
	LobbyID  uuid.UUID `json:"lobbyId"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

// ServerMessage is the envelope for every frame the server pushes.
// Exactly one payload field is populated, selected by Type.
type ServerMessage struct {
	Type         string               `json:"type"`
	UserID       *uuid.UUID           `json:"userId,omitempty"`
	Count        *int                 `json:"count,omitempty"`
	LobbyID      *uuid.UUID           `json:"lobbyId,omitempty"`
	Data         *LobbyEvent          `json:"data,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// LobbyEvent is the tagged union carried by lobby_update frames: Action
// selects which of the optional payloads is set.
type LobbyEvent struct {
	Action      Action               `json:"action"`
	Lobby       *models.Lobby        `json:"lobby,omitempty"`
	Members     []models.LobbyMember `json:"members,omitempty"`
	Member      *models.LobbyMember  `json:"member,omitempty"`
	PlayerCount *int                 `json:"playerCount,omitempty"`
	Message     *models.LobbyMessage `json:"message,omitempty"`
	Match       *models.Match        `json:"match,omitempty"`
	Typing      *Typing              `json:"typing,omitempty"`
	Reason      string               `json:"reason,omitempty"`
}

// Typing identifies who is typing in a lobby. Never persisted.
type Typing struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

func AuthSuccess(userID uuid.UUID) *ServerMessage {
	return &ServerMessage{Type: TypeAuthSuccess, UserID: &userID}
}

func UnreadCount(count int) *ServerMessage {
	return &ServerMessage{Type: TypeUnreadCount, Count: &count}
}

func LobbySubscribed(lobbyID uuid.UUID) *ServerMessage {
	return &ServerMessage{Type: TypeLobbySubscribed, LobbyID: &lobbyID}
}

func LobbyUnsubscribed(lobbyID uuid.UUID) *ServerMessage {
	return &ServerMessage{Type: TypeLobbyUnsubscribed, LobbyID: &lobbyID}
}

func NotificationPush(n *models.Notification) *ServerMessage {
	return &ServerMessage{Type: TypeNotification, Notification: n}
}

func ErrorMessage(msg string) *ServerMessage {
	return &ServerMessage{Type: TypeError, Error: msg}
}

// LobbyUpdate wraps an event for delivery to all subscribers of a lobby.
func LobbyUpdate(lobbyID uuid.UUID, ev *LobbyEvent) *ServerMessage {
	return &ServerMessage{Type: TypeLobbyUpdate, LobbyID: &lobbyID, Data: ev}
}

// SubscribedEvent is the private state snapshot sent to a connection right
// after it subscribes, so the client can render the room.
func SubscribedEvent(lobby *models.Lobby, members []models.LobbyMember) *LobbyEvent {
	return &LobbyEvent{Action: ActionSubscribed, Lobby: lobby, Members: members}
}

func TypingEvent(userID uuid.UUID, username string) *LobbyEvent {
	return &LobbyEvent{Action: ActionTyping, Typing: &Typing{UserID: userID, Username: username}}
}

func MemberJoinedEvent(m *models.LobbyMember, playerCount int) *LobbyEvent {
	return &LobbyEvent{Action: ActionMemberJoined, Member: m, PlayerCount: &playerCount}
}

func MemberLeftEvent(m *models.LobbyMember, playerCount int) *LobbyEvent {
	return &LobbyEvent{Action: ActionMemberLeft, Member: m, PlayerCount: &playerCount}
}

func ReadyStatusChangedEvent(m *models.LobbyMember) *LobbyEvent {
	return &LobbyEvent{Action: ActionReadyStatusChanged, Member: m}
}

func NewMessageEvent(msg *models.LobbyMessage) *LobbyEvent {
	return &LobbyEvent{Action: ActionNewMessage, Message: msg}
}

func MatchStartedEvent(match *models.Match) *LobbyEvent {
	return &LobbyEvent{Action: ActionMatchStarted, Match: match}
}

func LobbyCancelledEvent(reason string) *LobbyEvent {
	return &LobbyEvent{Action: ActionLobbyCancelled, Reason: reason}
}

func LobbyDeletedEvent(reason string) *LobbyEvent {
	return &LobbyEvent{Action: ActionLobbyDeleted, Reason: reason}
}
