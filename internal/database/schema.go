// internal/database/schema.go
package database

import "context"

// The users relation is owned by the accounts service and is not created
// here; this service only joins against it for display names.
const schema = `
CREATE TABLE IF NOT EXISTS lobbies (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    game_id UUID NOT NULL,
    owner_id UUID NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open',
    max_players INT NOT NULL,
    current_players INT NOT NULL DEFAULT 1,
    entry_fee BIGINT NOT NULL DEFAULT 0,
    prize_pool BIGINT NOT NULL DEFAULT 0,
    password_hash TEXT NOT NULL DEFAULT '',
    map_name TEXT NOT NULL DEFAULT '',
    rules JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    started_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_lobbies_status ON lobbies (status);
CREATE INDEX IF NOT EXISTS idx_lobbies_game ON lobbies (game_id);

CREATE TABLE IF NOT EXISTS lobby_members (
    lobby_id UUID NOT NULL REFERENCES lobbies (id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    team_id UUID,
    side TEXT NOT NULL DEFAULT '',
    ready BOOLEAN NOT NULL DEFAULT false,
    joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (lobby_id, user_id)
);

CREATE TABLE IF NOT EXISTS lobby_messages (
    id UUID PRIMARY KEY,
    lobby_id UUID NOT NULL REFERENCES lobbies (id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lobby_messages_lobby ON lobby_messages (lobby_id, created_at);

CREATE TABLE IF NOT EXISTS matches (
    id UUID PRIMARY KEY,
    lobby_id UUID NOT NULL UNIQUE REFERENCES lobbies (id) ON DELETE CASCADE,
    game_id UUID NOT NULL,
    prize_pool BIGINT NOT NULL DEFAULT 0,
    server_host TEXT NOT NULL,
    server_port INT NOT NULL,
    session_code TEXT NOT NULL,
    map_name TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    data JSONB,
    is_read BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, is_read);
`

// EnsureSchema creates the service's relations if they do not exist yet.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}
