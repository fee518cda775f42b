// internal/protocol/protocol_test.go
package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// TestLobbyUpdateCarriesOnlyPopulatedVariant checks that the event union
// serializes the action discriminator plus exactly the payload that action
// needs, nothing else.
func TestLobbyUpdateCarriesOnlyPopulatedVariant(t *testing.T) {
	lobbyID := uuid.New()
	member := &models.LobbyMember{LobbyID: lobbyID, UserID: uuid.New(), Username: "ayla", Ready: true}

	raw, err := json.Marshal(LobbyUpdate(lobbyID, MemberJoinedEvent(member, 3)))
	require.NoError(t, err)

	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.JSONEq(t, `"lobby_update"`, string(frame["type"]))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(frame["data"], &data))
	assert.JSONEq(t, `"MEMBER_JOINED"`, string(data["action"]))
	assert.Contains(t, data, "member")
	assert.Contains(t, data, "playerCount")
	assert.NotContains(t, data, "message")
	assert.NotContains(t, data, "match")
	assert.NotContains(t, data, "typing")
	assert.NotContains(t, data, "lobby")
}

// TestUnreadCountZeroIsSerialized guards against omitempty swallowing a
// zero count, which clients rely on after a read-all.
func TestUnreadCountZeroIsSerialized(t *testing.T) {
	raw, err := json.Marshal(UnreadCount(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"unread_count","count":0}`, string(raw))
}
