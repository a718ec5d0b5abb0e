package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/data/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Server.URL)
	assert.Equal(t, realtime.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, ":5000", cfg.Relay.Listen)
	assert.Equal(t, "/ws", cfg.Relay.Path)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  url: wss://relay.example.com/ws
  token: abc
  dial_timeout: 3s
reconnect:
  max_attempts: 0
  base_delay: 500ms
storage:
  backend: redis
  redis:
    addr: cache:6379
    db: 2
relay:
  listen: 127.0.0.1:9000
  tokens: [one, two]
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "wss://relay.example.com/ws", cfg.Server.URL)
	assert.Equal(t, "abc", cfg.Server.Token)
	assert.Equal(t, 3*time.Second, cfg.Server.DialTimeout)

	assert.Equal(t, realtime.Policy{MaxAttempts: 0, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}, cfg.Policy())

	opts := cfg.StorageOptions()
	assert.Equal(t, storage.BackendRedis, opts.Backend)
	assert.Equal(t, "cache:6379", opts.Redis.Addr)
	assert.Equal(t, 2, opts.Redis.DB)
	assert.Equal(t, "ecopulse:", opts.Redis.Prefix, "unset keys keep defaults")
	assert.Equal(t, filepath.Join(cfg.DataDir, "state"), opts.Dir)

	assert.Equal(t, "127.0.0.1:9000", cfg.Relay.Listen)
	assert.Equal(t, "/ws", cfg.Relay.Path)
	assert.Equal(t, []string{"one", "two"}, cfg.Relay.Tokens)
}

func TestLoad_EmptyValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: ""
relay:
  path: ""
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/ws", cfg.Relay.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "bad yaml", body: "server: [", wantErr: "parse config file"},
		{name: "bad scheme", body: "server:\n  url: http://localhost/ws", wantErr: "scheme must be ws or wss"},
		{name: "max below base", body: "reconnect:\n  base_delay: 5s\n  max_delay: 1s", wantErr: "invalid config"},
		{name: "unknown backend", body: "storage:\n  backend: sqlite", wantErr: "unknown backend"},
		{name: "relay path", body: "relay:\n  path: ws", wantErr: "must start with /"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RequiresDataDir(t *testing.T) {
	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data directory cannot be empty")
}
