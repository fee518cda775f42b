// internal/match/provisioner.go

// Package match allocates game-server capacity for lobbies whose match
// is starting. Allocation is a descriptor, not an RPC: the platform's
// game servers poll for their assignments, so provisioning only decides
// where the players should go and records it.
package match

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
)

type Provisioner struct {
	store      database.Store
	host       string
	portMin    int
	portMax    int
	defaultMap string
}

func NewProvisioner(store database.Store, host string, portMin, portMax int, defaultMap string) *Provisioner {
	if portMax < portMin {
		portMin, portMax = portMax, portMin
	}
	return &Provisioner{
		store:      store,
		host:       host,
		portMin:    portMin,
		portMax:    portMax,
		defaultMap: defaultMap,
	}
}

// Provision returns the connection descriptor for the lobby's match,
// creating and persisting it on first call. A retry after a partial
// start finds the existing row and returns it unchanged, so every caller
// hands out the same parameters.
func (p *Provisioner) Provision(ctx context.Context, lobby *models.Lobby) (*models.Match, error) {
	existing, err := p.store.GetMatchByLobby(ctx, lobby.ID)
	if err == nil {
		existing.Instructions = instructions(existing)
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	code, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate session code: %w", err)
	}
	mapName := lobby.MapName
	if mapName == "" {
		mapName = p.defaultMap
	}

	m := &models.Match{
		ID:          uuid.New(),
		LobbyID:     lobby.ID,
		GameID:      lobby.GameID,
		PrizePool:   lobby.PrizePool,
		ServerHost:  p.host,
		ServerPort:  p.port(lobby.ID),
		SessionCode: code,
		MapName:     mapName,
		Mode:        string(lobby.Type),
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.store.CreateMatch(ctx, m); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// Lost a cross-process race; the winner's row stands.
			return p.Provision(ctx, lobby)
		}
		return nil, err
	}
	m.Instructions = instructions(m)
	return m, nil
}

// port maps the lobby id onto the configured range so retries for the
// same lobby always land on the same server slot.
func (p *Provisioner) port(lobbyID uuid.UUID) int {
	h := fnv.New32a()
	h.Write(lobbyID[:])
	span := uint32(p.portMax - p.portMin + 1)
	return p.portMin + int(h.Sum32()%span)
}

func instructions(m *models.Match) string {
	return fmt.Sprintf("connect to %s:%d and enter code %s", m.ServerHost, m.ServerPort, m.SessionCode)
}
