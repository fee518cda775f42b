// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "lobby_events", cfg.LobbyEventQueue)
	assert.Equal(t, 7000, cfg.MatchPortMin)
	assert.Equal(t, 7999, cfg.MatchPortMax)
	assert.Equal(t, "harbor", cfg.MatchDefaultMap)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("MATCH_PORT_MIN", "7100")
	t.Setenv("ALLOWED_ORIGINS", "https://app.quickmatch.gg,https://staging.quickmatch.gg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 7100, cfg.MatchPortMin)
	assert.Equal(t, []string{"https://app.quickmatch.gg", "https://staging.quickmatch.gg"}, cfg.AllowedOrigins)
}

func TestLoadRejectsInvertedPortRange(t *testing.T) {
	t.Setenv("MATCH_PORT_MIN", "8000")
	t.Setenv("MATCH_PORT_MAX", "7000")

	_, err := Load()
	assert.Error(t, err)
}
