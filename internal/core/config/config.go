// Package config handles configuration loading and validation for ecopulse.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/data/storage"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Storage   StorageConfig   `yaml:"storage"`
	Relay     RelayConfig     `yaml:"relay"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// ServerConfig describes the relay the client connects to.
type ServerConfig struct {
	URL         string        `yaml:"url"`          // ws:// or wss:// endpoint
	Token       string        `yaml:"token"`        // bearer token presented on connect
	DialTimeout time.Duration `yaml:"dial_timeout"` // bound on a single handshake
}

// ReconnectConfig is the exponential backoff policy.
type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// StorageConfig selects where notifications are persisted.
type StorageConfig struct {
	Backend string      `yaml:"backend"` // file, memory, or redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RelayConfig configures `ecopulse serve`.
type RelayConfig struct {
	Listen string   `yaml:"listen"`
	Path   string   `yaml:"path"`
	Tokens []string `yaml:"tokens"` // empty disables authentication
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	policy := realtime.DefaultPolicy()
	return Config{
		Server: ServerConfig{
			URL:         "ws://localhost:5000/ws",
			DialTimeout: 10 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: policy.MaxAttempts,
			BaseDelay:   policy.BaseDelay,
			MaxDelay:    policy.MaxDelay,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "ecopulse:",
			},
		},
		Relay: RelayConfig{
			Listen: ":5000",
			Path:   "/ws",
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
// Keys missing from the file keep their default values.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills settings a config file set to an empty value.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = defaults.Storage.Redis.Prefix
	}
	if c.Relay.Path == "" {
		c.Relay.Path = defaults.Relay.Path
	}
}

// Policy converts the reconnect settings to a realtime.Policy.
func (c *Config) Policy() realtime.Policy {
	return realtime.Policy{
		MaxAttempts: c.Reconnect.MaxAttempts,
		BaseDelay:   c.Reconnect.BaseDelay,
		MaxDelay:    c.Reconnect.MaxDelay,
	}
}

// StateDir returns the directory used by the file storage backend.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// StorageOptions converts the storage settings to storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		Dir:     c.StateDir(),
		Redis: storage.RedisConfig{
			Addr:     c.Storage.Redis.Addr,
			Password: c.Storage.Redis.Password,
			DB:       c.Storage.Redis.DB,
			Prefix:   c.Storage.Redis.Prefix,
		},
	}
}
