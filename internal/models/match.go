// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Match is the provisioned game session a lobby transitions into. The row
// links back to the lobby, its game and its prize value; result settlement
// is owned by the match-result subsystem.
type Match struct {
	ID          uuid.UUID `json:"id"`
	LobbyID     uuid.UUID `json:"lobbyId"`
	GameID      uuid.UUID `json:"gameId"`
	PrizePool   int64     `json:"prizePool"`
	ServerHost  string    `json:"serverHost"`
	ServerPort  int       `json:"serverPort"`
	SessionCode string    `json:"sessionCode"`
	MapName     string    `json:"map"`
	Mode        string    `json:"mode"`
	CreatedAt   time.Time `json:"createdAt"`

	// Instructions is the human-readable join text derived from the
	// connection parameters. Not persisted.
	Instructions string `json:"instructions,omitempty"`
}
