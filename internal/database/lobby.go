// internal/database/lobby.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// CreateLobby inserts the lobby row and the owner's member row in one
// transaction.
func (s *PgStore) CreateLobby(ctx context.Context, lobby *models.Lobby, owner *models.LobbyMember) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		INSERT INTO lobbies (
			id, name, game_id, owner_id, type, status,
			max_players, current_players, entry_fee, prize_pool,
			password_hash, map_name, rules, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6,
		        $7, $8, $9, $10,
		        $11, $12, $13, $14)
		`
		_, err := tx.Exec(ctx, q,
			lobby.ID, lobby.Name, lobby.GameID, lobby.OwnerID, lobby.Type, lobby.Status,
			lobby.MaxPlayers, lobby.CurrentPlayers, lobby.EntryFee, lobby.PrizePool,
			lobby.PasswordHash, lobby.MapName, lobby.Rules, lobby.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert lobby: %w", err)
		}

		q = `
		INSERT INTO lobby_members (lobby_id, user_id, team_id, side, ready, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, q,
			owner.LobbyID, owner.UserID, owner.TeamID, owner.Side, owner.Ready, owner.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("insert owner member: %w", err)
		}
		return nil
	})
}

// GetLobby fetches a lobby by id.
func (s *PgStore) GetLobby(ctx context.Context, id uuid.UUID) (*models.Lobby, error) {
	var l models.Lobby
	q := `
	SELECT id, name, game_id, owner_id, type, status,
	       max_players, current_players, entry_fee, prize_pool,
	       password_hash, map_name, rules, created_at, started_at
	FROM lobbies
	WHERE id = $1
	`
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.Name, &l.GameID, &l.OwnerID, &l.Type, &l.Status,
		&l.MaxPlayers, &l.CurrentPlayers, &l.EntryFee, &l.PrizePool,
		&l.PasswordHash, &l.MapName, &l.Rules, &l.CreatedAt, &l.StartedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lobby %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	l.HasPassword = l.PasswordHash != ""
	return &l, nil
}

// ListLobbies returns lobbies matching the filter, newest first.
func (s *PgStore) ListLobbies(ctx context.Context, f LobbyFilter) ([]models.Lobby, error) {
	q := `
	SELECT id, name, game_id, owner_id, type, status,
	       max_players, current_players, entry_fee, prize_pool,
	       password_hash, map_name, rules, created_at, started_at
	FROM lobbies
	`
	var conds []string
	var args []interface{}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.GameID != uuid.Nil {
		args = append(args, f.GameID)
		conds = append(conds, fmt.Sprintf("game_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lobbies []models.Lobby
	for rows.Next() {
		var l models.Lobby
		err := rows.Scan(
			&l.ID, &l.Name, &l.GameID, &l.OwnerID, &l.Type, &l.Status,
			&l.MaxPlayers, &l.CurrentPlayers, &l.EntryFee, &l.PrizePool,
			&l.PasswordHash, &l.MapName, &l.Rules, &l.CreatedAt, &l.StartedAt,
		)
		if err != nil {
			return nil, err
		}
		l.HasPassword = l.PasswordHash != ""
		lobbies = append(lobbies, l)
	}
	return lobbies, rows.Err()
}

// SetLobbyStatus updates the status and stamps started_at on the
// transition into in_progress.
func (s *PgStore) SetLobbyStatus(ctx context.Context, id uuid.UUID, status models.LobbyStatus) error {
	q := `
	UPDATE lobbies
	SET status = $2,
	    started_at = CASE WHEN $2 = 'in_progress' THEN now() ELSE started_at END
	WHERE id = $1
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, id, status)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("lobby %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// DeleteLobby removes the lobby and everything hanging off it.
func (s *PgStore) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lobby_messages WHERE lobby_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM lobby_members WHERE lobby_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM matches WHERE lobby_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM lobbies WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("lobby %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// AddMember inserts the member row and bumps current_players and
// prize_pool. The counter update is guarded by status and capacity inside
// the transaction, which is what keeps concurrent joins from oversubscribing
// a lobby regardless of who calls this.
func (s *PgStore) AddMember(ctx context.Context, m *models.LobbyMember) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
		UPDATE lobbies
		SET current_players = current_players + 1,
		    prize_pool = prize_pool + entry_fee
		WHERE id = $1 AND status = 'open' AND current_players < max_players
		`
		ct, err := tx.Exec(ctx, q, m.LobbyID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			var status models.LobbyStatus
			err := tx.QueryRow(ctx, `SELECT status FROM lobbies WHERE id = $1`, m.LobbyID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lobby %s: %w", m.LobbyID, ErrNotFound)
			}
			if err != nil {
				return err
			}
			if status != models.LobbyStatusOpen {
				return fmt.Errorf("lobby %s is %s: %w", m.LobbyID, status, ErrInvalidStatus)
			}
			return fmt.Errorf("lobby %s: %w", m.LobbyID, ErrLobbyFull)
		}

		q = `
		INSERT INTO lobby_members (lobby_id, user_id, team_id, side, ready, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, q, m.LobbyID, m.UserID, m.TeamID, m.Side, m.Ready, m.JoinedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s in lobby %s: %w", m.UserID, m.LobbyID, ErrDuplicate)
		}
		return err
	})
}

// RemoveMember deletes the member row and adjusts the counters.
func (s *PgStore) RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM lobby_members WHERE lobby_id = $1 AND user_id = $2`, lobbyID, userID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
		}

		q := `
		UPDATE lobbies
		SET current_players = current_players - 1,
		    prize_pool = GREATEST(prize_pool - entry_fee, 0)
		WHERE id = $1
		`
		_, err = tx.Exec(ctx, q, lobbyID)
		return err
	})
}

// GetMember fetches one membership row with the display name joined in.
func (s *PgStore) GetMember(ctx context.Context, lobbyID, userID uuid.UUID) (*models.LobbyMember, error) {
	var m models.LobbyMember
	q := `
	SELECT m.lobby_id, m.user_id, m.team_id, m.side, m.ready, m.joined_at, u.username
	FROM lobby_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.lobby_id = $1 AND m.user_id = $2
	`
	err := s.pool.QueryRow(ctx, q, lobbyID, userID).Scan(
		&m.LobbyID, &m.UserID, &m.TeamID, &m.Side, &m.Ready, &m.JoinedAt, &m.Username,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns the lobby roster in join order.
func (s *PgStore) ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]models.LobbyMember, error) {
	q := `
	SELECT m.lobby_id, m.user_id, m.team_id, m.side, m.ready, m.joined_at, u.username
	FROM lobby_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.lobby_id = $1
	ORDER BY m.joined_at
	`
	rows, err := s.pool.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.LobbyMember
	for rows.Next() {
		var m models.LobbyMember
		if err := rows.Scan(&m.LobbyID, &m.UserID, &m.TeamID, &m.Side, &m.Ready, &m.JoinedAt, &m.Username); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SetMemberReady flips the ready flag and returns the updated row.
func (s *PgStore) SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*models.LobbyMember, error) {
	var updated *models.LobbyMember
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE lobby_members SET ready = $3 WHERE lobby_id = $1 AND user_id = $2`, lobbyID, userID, ready)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("member %s in lobby %s: %w", userID, lobbyID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated, err = s.GetMember(ctx, lobbyID, userID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateMessage appends a chat entry.
func (s *PgStore) CreateMessage(ctx context.Context, msg *models.LobbyMessage) error {
	q := `
	INSERT INTO lobby_messages (id, lobby_id, user_id, content, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, q, msg.ID, msg.LobbyID, msg.UserID, msg.Content, msg.CreatedAt)
	return err
}

// ListMessages returns up to limit most recent messages, oldest first.
func (s *PgStore) ListMessages(ctx context.Context, lobbyID uuid.UUID, limit int) ([]models.LobbyMessage, error) {
	q := `
	SELECT m.id, m.lobby_id, m.user_id, u.username, m.content, m.created_at
	FROM lobby_messages m
	JOIN users u ON u.id = m.user_id
	WHERE m.lobby_id = $1
	ORDER BY m.created_at DESC
	LIMIT $2
	`
	rows, err := s.pool.Query(ctx, q, lobbyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.LobbyMessage
	for rows.Next() {
		var m models.LobbyMessage
		if err := rows.Scan(&m.ID, &m.LobbyID, &m.UserID, &m.Username, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// query is newest-first for the LIMIT; flip for display order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
