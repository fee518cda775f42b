// internal/database/user.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// GetUserByID reads the account projection this service needs. The users
// relation is owned by the accounts service; we never write to it.
func (s *PgStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, is_admin FROM users WHERE id = $1`
	err := s.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Username, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
