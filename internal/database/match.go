// internal/database/match.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// CreateMatch persists a provisioned match. The unique index on lobby_id
// makes a raced double-provision surface as ErrDuplicate.
func (s *PgStore) CreateMatch(ctx context.Context, match *models.Match) error {
	q := `
	INSERT INTO matches (id, lobby_id, game_id, prize_pool, server_host, server_port, session_code, map_name, mode, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			match.ID, match.LobbyID, match.GameID, match.PrizePool,
			match.ServerHost, match.ServerPort, match.SessionCode,
			match.MapName, match.Mode, match.CreatedAt,
		)
		return err
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("match for lobby %s: %w", match.LobbyID, ErrDuplicate)
	}
	return err
}

// GetMatchByLobby fetches the match provisioned for a lobby, if any.
func (s *PgStore) GetMatchByLobby(ctx context.Context, lobbyID uuid.UUID) (*models.Match, error) {
	var m models.Match
	q := `
	SELECT id, lobby_id, game_id, prize_pool, server_host, server_port, session_code, map_name, mode, created_at
	FROM matches
	WHERE lobby_id = $1
	`
	err := s.pool.QueryRow(ctx, q, lobbyID).Scan(
		&m.ID, &m.LobbyID, &m.GameID, &m.PrizePool,
		&m.ServerHost, &m.ServerPort, &m.SessionCode,
		&m.MapName, &m.Mode, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match for lobby %s: %w", lobbyID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
