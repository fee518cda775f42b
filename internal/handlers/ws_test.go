// internal/handlers/ws_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/auth"
	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/protocol"
	"github.com/quickmatch-gg/lobby-service/internal/session"
)

func dialWS(t *testing.T, e *env, header http.Header) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, e.http.URL+"/ws", &websocket.DialOptions{
		Subprotocols: []string{wsSubprotocol},
		HTTPClient:   e.http.Client(),
		HTTPHeader:   header,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "test done") })
	return c
}

func sendFrame(t *testing.T, c *websocket.Conn, msg protocol.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func readFrame(t *testing.T, c *websocket.Conn) protocol.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)

	var msg protocol.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// authFrames reads the auth_success and unread_count pair every fresh
// identity binding produces.
func authFrames(t *testing.T, c *websocket.Conn, wantUser uuid.UUID) {
	t.Helper()
	msg := readFrame(t, c)
	require.Equal(t, protocol.TypeAuthSuccess, msg.Type)
	require.NotNil(t, msg.UserID)
	assert.Equal(t, wantUser, *msg.UserID)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeUnreadCount, msg.Type)
	require.NotNil(t, msg.Count)
}

func TestWSAuthFrameBindsIdentity(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user(t, "riley")
	token, err := auth.CreateJWT(u.ID)
	require.NoError(t, err)

	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
	authFrames(t, c, u.ID)
}

func TestWSCookieAuthAtUpgrade(t *testing.T) {
	e := newEnv(t)
	u, cookie := e.user(t, "riley")

	header := http.Header{}
	header.Set("Cookie", cookie.Name+"="+cookie.Value)
	c := dialWS(t, e, header)

	// No frames sent; the cookie alone binds the identity.
	authFrames(t, c, u.ID)
}

func TestWSAuthFailureCloses(t *testing.T) {
	e := newEnv(t)

	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: "garbage"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusAuthFailed, websocket.CloseStatus(err))
}

func TestWSRejectsMissingSubprotocol(t *testing.T) {
	e := newEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, e.http.URL+"/ws", &websocket.DialOptions{
		HTTPClient: e.http.Client(),
	})
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "test done")

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusBadSubprotocol, websocket.CloseStatus(err))
}

func TestWSSubscribeRequiresAuth(t *testing.T) {
	e := newEnv(t)

	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: uuid.New()})

	msg := readFrame(t, c)
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Contains(t, msg.Error, "authenticate")
}

func TestWSSubscribeUnknownLobby(t *testing.T) {
	e := newEnv(t)
	u, _ := e.user(t, "riley")
	token, err := auth.CreateJWT(u.ID)
	require.NoError(t, err)

	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
	authFrames(t, c, u.ID)

	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: uuid.New()})
	msg := readFrame(t, c)
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Contains(t, msg.Error, "unknown lobby")
}

func TestWSSubscribeSnapshotAndLiveUpdates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, _ := e.user(t, "riley")
	guest, _ := e.user(t, "kato")

	lobby, err := e.manager.Create(ctx, owner.ID, session.CreateParams{
		Name: "evening scrim", GameID: uuid.New(), Type: models.LobbyTypeSolo, MaxPlayers: 4, EntryFee: 50,
	})
	require.NoError(t, err)

	token, err := auth.CreateJWT(guest.ID)
	require.NoError(t, err)
	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
	authFrames(t, c, guest.ID)

	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: lobby.ID})

	msg := readFrame(t, c)
	require.Equal(t, protocol.TypeLobbySubscribed, msg.Type)
	require.NotNil(t, msg.LobbyID)
	assert.Equal(t, lobby.ID, *msg.LobbyID)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, protocol.ActionSubscribed, msg.Data.Action)
	require.NotNil(t, msg.Data.Lobby)
	assert.Equal(t, lobby.ID, msg.Data.Lobby.ID)
	assert.Len(t, msg.Data.Members, 1)

	// A join lands on the socket as it commits.
	_, err = e.manager.Join(ctx, lobby.ID, guest.ID, session.JoinParams{})
	require.NoError(t, err)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, protocol.ActionMemberJoined, msg.Data.Action)
	require.NotNil(t, msg.Data.Member)
	assert.Equal(t, guest.ID, msg.Data.Member.UserID)
	require.NotNil(t, msg.Data.PlayerCount)
	assert.Equal(t, 2, *msg.Data.PlayerCount)

	// So does chat.
	_, err = e.manager.SendMessage(ctx, lobby.ID, owner.ID, "glhf")
	require.NoError(t, err)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, protocol.ActionNewMessage, msg.Data.Action)
	require.NotNil(t, msg.Data.Message)
	assert.Equal(t, "glhf", msg.Data.Message.Content)
	assert.Equal(t, "riley", msg.Data.Message.Username)
}

func TestWSTypingRelaySkipsSender(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, _ := e.user(t, "riley")
	guest, _ := e.user(t, "kato")

	lobby, err := e.manager.Create(ctx, owner.ID, session.CreateParams{
		Name: "evening scrim", GameID: uuid.New(), Type: models.LobbyTypeSolo, MaxPlayers: 4, EntryFee: 0,
	})
	require.NoError(t, err)
	_, err = e.manager.Join(ctx, lobby.ID, guest.ID, session.JoinParams{})
	require.NoError(t, err)

	subscribe := func(userID uuid.UUID) *websocket.Conn {
		token, err := auth.CreateJWT(userID)
		require.NoError(t, err)
		c := dialWS(t, e, nil)
		sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
		authFrames(t, c, userID)
		sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: lobby.ID})
		msg := readFrame(t, c)
		require.Equal(t, protocol.TypeLobbySubscribed, msg.Type)
		msg = readFrame(t, c)
		require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
		return c
	}

	ownerConn := subscribe(owner.ID)
	guestConn := subscribe(guest.ID)

	sendFrame(t, guestConn, protocol.ClientMessage{
		Type: protocol.TypeTyping, LobbyID: lobby.ID, Username: "kato",
	})

	msg := readFrame(t, ownerConn)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	require.Equal(t, protocol.ActionTyping, msg.Data.Action)
	require.NotNil(t, msg.Data.Typing)
	assert.Equal(t, guest.ID, msg.Data.Typing.UserID)
	assert.Equal(t, "kato", msg.Data.Typing.Username)

	// The sender never sees their own indicator: the next frame the
	// guest receives is the chat message, not the typing echo.
	_, err = e.manager.SendMessage(ctx, lobby.ID, owner.ID, "done warming up?")
	require.NoError(t, err)

	msg = readFrame(t, guestConn)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, protocol.ActionNewMessage, msg.Data.Action)
}

func TestWSUnsubscribeStopsUpdates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, _ := e.user(t, "riley")
	guest, _ := e.user(t, "kato")

	lobby, err := e.manager.Create(ctx, owner.ID, session.CreateParams{
		Name: "evening scrim", GameID: uuid.New(), Type: models.LobbyTypeSolo, MaxPlayers: 4, EntryFee: 0,
	})
	require.NoError(t, err)

	token, err := auth.CreateJWT(guest.ID)
	require.NoError(t, err)
	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
	authFrames(t, c, guest.ID)

	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: lobby.ID})
	require.Equal(t, protocol.TypeLobbySubscribed, readFrame(t, c).Type)
	require.Equal(t, protocol.TypeLobbyUpdate, readFrame(t, c).Type)

	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeUnsubscribeLobby, LobbyID: lobby.ID})
	require.Equal(t, protocol.TypeLobbyUnsubscribed, readFrame(t, c).Type)

	_, err = e.manager.Join(ctx, lobby.ID, guest.ID, session.JoinParams{})
	require.NoError(t, err)

	// Nothing should arrive after unsubscribing. Reading closes the
	// connection on timeout, so this is the last use of the socket.
	readCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, _, err = c.Read(readCtx)
	require.Error(t, err)
}

func TestWSCancelNotificationFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, _ := e.user(t, "riley")
	guest, _ := e.user(t, "kato")

	lobby, err := e.manager.Create(ctx, owner.ID, session.CreateParams{
		Name: "evening scrim", GameID: uuid.New(), Type: models.LobbyTypeSolo, MaxPlayers: 4, EntryFee: 0,
	})
	require.NoError(t, err)
	_, err = e.manager.Join(ctx, lobby.ID, guest.ID, session.JoinParams{})
	require.NoError(t, err)

	token, err := auth.CreateJWT(guest.ID)
	require.NoError(t, err)
	c := dialWS(t, e, nil)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeAuth, Token: token})
	authFrames(t, c, guest.ID)
	sendFrame(t, c, protocol.ClientMessage{Type: protocol.TypeSubscribeLobby, LobbyID: lobby.ID})
	require.Equal(t, protocol.TypeLobbySubscribed, readFrame(t, c).Type)
	require.Equal(t, protocol.TypeLobbyUpdate, readFrame(t, c).Type)

	// Owner walks out: the room gets the cancellation, the members get a
	// durable notification and a fresh badge count.
	require.NoError(t, e.manager.Leave(ctx, lobby.ID, owner.ID))

	msg := readFrame(t, c)
	require.Equal(t, protocol.TypeLobbyUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, protocol.ActionLobbyCancelled, msg.Data.Action)
	assert.NotEmpty(t, msg.Data.Reason)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeNotification, msg.Type)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, models.NotificationLobbyCancelled, msg.Notification.Type)
	assert.Equal(t, guest.ID, msg.Notification.UserID)

	msg = readFrame(t, c)
	require.Equal(t, protocol.TypeUnreadCount, msg.Type)
	require.NotNil(t, msg.Count)
	assert.Equal(t, 1, *msg.Count)
}
