package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ecopulse/internal/data/storage"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.URL = ""
	cfg.Reconnect.BaseDelay = 0
	cfg.Storage.Backend = "disk"

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)
}

func TestValidate_ServerURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr string
	}{
		{url: "ws://localhost:5000/ws"},
		{url: "wss://relay.example.com"},
		{url: "", wantErr: "cannot be empty"},
		{url: "https://relay.example.com", wantErr: "scheme must be ws or wss"},
		{url: "ws:///path", wantErr: "missing host"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.Server.URL = tt.url

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relay.Tokens = []string{"a", "b"}
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_RunsStructuralFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Backend = "disk"

	err := cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestValidateDeep_Redis(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Backend = storage.BackendRedis
	cfg.Storage.Redis.Addr = "no-port"
	cfg.Storage.Redis.DB = -1

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	assert.Equal(t, "storage.redis.addr", fieldErrs[0].Field)
}

func TestValidateDeep_RedisIgnoredForOtherBackends(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Redis.Addr = "no-port"
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_Tokens(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relay.Tokens = []string{"a", " ", "a"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "relay.tokens[1]", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[1].Err.Error(), "duplicate")
}

func TestValidateDeep_ListenAddress(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relay.Listen = "5000"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "relay.listen", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs[0].Err.Error(), "is a directory")
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.Relay.Tokens = []string{"t"}
	assert.Empty(t, cfg.Warnings())

	cfg.Relay.Tokens = nil
	cfg.Reconnect.MaxAttempts = 0
	cfg.Server.URL = "ws://relay.example.com/ws"
	cfg.Server.Token = "secret"

	items := []string{}
	for _, w := range cfg.Warnings() {
		items = append(items, w.Category+"."+w.Item)
	}
	assert.Equal(t, []string{"Relay.tokens", "Reconnect.max_attempts", "Server.url"}, items)
}
