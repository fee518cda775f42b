// internal/match/provisioner_test.go
package match

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
)

func stagedLobby() *models.Lobby {
	return &models.Lobby{
		ID:             uuid.New(),
		Name:           "evening scrim",
		GameID:         uuid.New(),
		OwnerID:        uuid.New(),
		Type:           models.LobbyTypeTeam,
		Status:         models.LobbyStatusOpen,
		MaxPlayers:     4,
		CurrentPlayers: 4,
		EntryFee:       25,
		PrizePool:      100,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestProvisionBuildsDescriptor(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	p := NewProvisioner(store, "match-eu-1.quickmatch.gg", 7000, 7099, "harbor")
	lobby := stagedLobby()

	m, err := p.Provision(ctx, lobby)
	require.NoError(t, err)

	assert.Equal(t, lobby.ID, m.LobbyID)
	assert.Equal(t, lobby.GameID, m.GameID)
	assert.Equal(t, int64(100), m.PrizePool)
	assert.Equal(t, "match-eu-1.quickmatch.gg", m.ServerHost)
	assert.GreaterOrEqual(t, m.ServerPort, 7000)
	assert.LessOrEqual(t, m.ServerPort, 7099)
	assert.NotEmpty(t, m.SessionCode)
	assert.Equal(t, "harbor", m.MapName, "config map fills in when the lobby has none")
	assert.Equal(t, "team", m.Mode)
	assert.Contains(t, m.Instructions, m.ServerHost)
	assert.Contains(t, m.Instructions, m.SessionCode)

	persisted, err := store.GetMatchByLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, persisted.ID)
	assert.Empty(t, persisted.Instructions, "instructions are derived, not stored")
}

func TestProvisionPrefersLobbyMap(t *testing.T) {
	ctx := context.Background()
	p := NewProvisioner(database.NewMemStore(), "match.local", 7000, 7099, "harbor")
	lobby := stagedLobby()
	lobby.MapName = "dustline"

	m, err := p.Provision(ctx, lobby)
	require.NoError(t, err)
	assert.Equal(t, "dustline", m.MapName)
}

func TestProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	p := NewProvisioner(store, "match.local", 7000, 7099, "harbor")
	lobby := stagedLobby()

	first, err := p.Provision(ctx, lobby)
	require.NoError(t, err)
	second, err := p.Provision(ctx, lobby)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.SessionCode, second.SessionCode)
	assert.Equal(t, first.ServerPort, second.ServerPort)
	assert.Equal(t, first.Instructions, second.Instructions)
}

func TestPortIsDeterministicPerLobby(t *testing.T) {
	a := NewProvisioner(database.NewMemStore(), "match.local", 7000, 7099, "harbor")
	b := NewProvisioner(database.NewMemStore(), "match.local", 7000, 7099, "harbor")
	lobbyID := uuid.New()

	assert.Equal(t, a.port(lobbyID), b.port(lobbyID), "same lobby maps to the same slot everywhere")

	one := NewProvisioner(database.NewMemStore(), "match.local", 7042, 7042, "harbor")
	assert.Equal(t, 7042, one.port(lobbyID), "single-port range still works")
}
