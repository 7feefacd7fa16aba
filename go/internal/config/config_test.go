package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/arena/go/clients/arena_client"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ARENA_API_URL", "ARENA_GAMES", "ARENA_REQUEST_TIMEOUT", "ARENA_GATEWAY_ADDR",
		"NATS_URL", "ARENA_LOG_LEVEL", "ARENA_AGENT_A_NAME", "ARENA_AGENT_B_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, DefaultRequestTimeout, cfg.API.Timeout)
	assert.Equal(t, 1, cfg.Games)
	assert.Equal(t, arena_client.WinnerLabelGPT, cfg.Agents.A)
	assert.Equal(t, arena_client.WinnerLabelClaude, cfg.Agents.B)
	assert.Empty(t, cfg.Gateway.Addr)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  url: http://arena.internal:5001
  timeout: 90s
games: 4
agents:
  a: Alpha
gateway:
  addr: ":8090"
log:
  level: debug
`), 0o600))

	t.Setenv("ARENA_GAMES", "6")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://arena.internal:5001", cfg.API.URL)
	assert.Equal(t, 90*time.Second, cfg.API.Timeout)
	assert.Equal(t, 6, cfg.Games)
	assert.Equal(t, "Alpha", cfg.Agents.A)
	assert.Equal(t, arena_client.WinnerLabelClaude, cfg.Agents.B)
	assert.Equal(t, ":8090", cfg.Gateway.Addr)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("ARENA_GAMES", "three")
	_, err = Load("")
	assert.ErrorContains(t, err, "ARENA_GAMES")

	t.Setenv("ARENA_GAMES", "")
	t.Setenv("ARENA_REQUEST_TIMEOUT", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "ARENA_REQUEST_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults"},
		{name: "max games", mutate: func(c *Config) { c.Games = MaxGames }},
		{name: "zero games", mutate: func(c *Config) { c.Games = 0 }, wantErr: "games must be between"},
		{name: "too many games", mutate: func(c *Config) { c.Games = MaxGames + 1 }, wantErr: "games must be between"},
		{name: "relative url", mutate: func(c *Config) { c.API.URL = "localhost" }, wantErr: "invalid api url"},
		{name: "no timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: "api timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
