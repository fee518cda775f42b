// internal/dispatch/dispatcher_test.go
package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/protocol"
	"github.com/quickmatch-gg/lobby-service/internal/registry"
)

func drain(t *testing.T, c *registry.Conn) []protocol.ServerMessage {
	t.Helper()
	var out []protocol.ServerMessage
	for {
		select {
		case raw := <-c.Outbox():
			var msg protocol.ServerMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestToLobbyReachesAllSubscribers(t *testing.T) {
	reg := registry.New()
	d := New(reg)
	lobbyID := uuid.New()

	a := reg.Register()
	b := reg.Register()
	outsider := reg.Register()
	reg.Subscribe(a.ID, lobbyID)
	reg.Subscribe(b.ID, lobbyID)

	d.ToLobby(lobbyID, protocol.LobbyUpdate(lobbyID, protocol.LobbyDeletedEvent("owner closed the lobby")))

	for _, c := range []*registry.Conn{a, b} {
		msgs := drain(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, protocol.TypeLobbyUpdate, msgs[0].Type)
		assert.Equal(t, protocol.ActionLobbyDeleted, msgs[0].Data.Action)
	}
	assert.Empty(t, drain(t, outsider))
}

func TestToUserReachesEveryDevice(t *testing.T) {
	reg := registry.New()
	d := New(reg)
	userID := uuid.New()

	phone := reg.Register()
	laptop := reg.Register()
	reg.Authenticate(phone.ID, userID)
	reg.Authenticate(laptop.ID, userID)

	d.ToUser(userID, protocol.UnreadCount(3))

	for _, c := range []*registry.Conn{phone, laptop} {
		msgs := drain(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, protocol.TypeUnreadCount, msgs[0].Type)
		require.NotNil(t, msgs[0].Count)
		assert.Equal(t, 3, *msgs[0].Count)
	}
}

func TestToLobbyExceptSkipsSender(t *testing.T) {
	reg := registry.New()
	d := New(reg)
	lobbyID := uuid.New()
	typist := uuid.New()

	sender := reg.Register()
	watcher := reg.Register()
	reg.Authenticate(sender.ID, typist)
	reg.Subscribe(sender.ID, lobbyID)
	reg.Subscribe(watcher.ID, lobbyID)

	d.ToLobbyExcept(lobbyID, typist, protocol.LobbyUpdate(lobbyID, protocol.TypingEvent(typist, "mira")))

	assert.Empty(t, drain(t, sender))
	msgs := drain(t, watcher)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.ActionTyping, msgs[0].Data.Action)
}

func TestStaleConnectionIsSkipped(t *testing.T) {
	reg := registry.New()
	d := New(reg)
	lobbyID := uuid.New()

	stale := reg.Register()
	healthy := reg.Register()
	reg.Subscribe(stale.ID, lobbyID)
	reg.Subscribe(healthy.ID, lobbyID)
	stale.Close()

	d.ToLobby(lobbyID, protocol.LobbySubscribed(lobbyID))

	assert.Len(t, drain(t, healthy), 1, "healthy connection still receives after a stale skip")
}
