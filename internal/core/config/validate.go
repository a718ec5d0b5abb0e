package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/ecopulse/internal/data/storage"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("data directory cannot be empty"))
	}

	if err := serverURL(c.Server.URL); err != nil {
		errs = errs.Append("server.url", err)
	}
	if c.Server.DialTimeout < 0 {
		errs = errs.Append("server.dial_timeout", fmt.Errorf("cannot be negative"))
	}

	if err := c.Policy().Validate(); err != nil {
		errs = errs.Append("reconnect", err)
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendMemory, storage.BackendRedis:
	default:
		errs = errs.Append("storage.backend", fmt.Errorf("unknown backend %q (want file, memory, or redis)", c.Storage.Backend))
	}

	if !strings.HasPrefix(c.Relay.Path, "/") {
		errs = errs.Append("relay.path", fmt.Errorf("must start with /"))
	}

	return errs.ToError()
}

// ValidateDeep performs comprehensive validation of the configuration including
// addresses and file accessibility. The configPath argument specifies the config
// file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateRedis(),
		criterio.Run("relay.listen", c.Relay.Listen, hostPort),
		c.validateTokens(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if len(c.Relay.Tokens) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Relay",
			Item:     "tokens",
			Message:  "no tokens configured; the relay accepts any client",
		})
	}

	if c.Reconnect.MaxAttempts == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Reconnect",
			Item:     "max_attempts",
			Message:  "automatic reconnection is disabled",
		})
	}

	if u, err := url.Parse(c.Server.URL); err == nil && u.Scheme == "ws" && c.Server.Token != "" && !isLoopback(u.Hostname()) {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "url",
			Message:  "token is sent over an unencrypted connection; use wss://",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.Storage.Backend != storage.BackendRedis {
		return nil
	}

	var errs criterio.FieldErrorsBuilder
	if err := hostPort(c.Storage.Redis.Addr); err != nil {
		errs = errs.Append("storage.redis.addr", err)
	}
	if c.Storage.Redis.DB < 0 {
		errs = errs.Append("storage.redis.db", fmt.Errorf("cannot be negative"))
	}
	return errs.ToError()
}

func (c *Config) validateTokens() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool)
	for i, tok := range c.Relay.Tokens {
		field := fmt.Sprintf("relay.tokens[%d]", i)
		switch {
		case strings.TrimSpace(tok) == "":
			errs = errs.Append(field, fmt.Errorf("token is empty"))
		case seen[tok]:
			errs = errs.Append(field, fmt.Errorf("duplicate token"))
		}
		seen[tok] = true
	}
	return errs.ToError()
}

func serverURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// hostPort validates a listen or dial address such as ":5000" or "redis:6379".
func hostPort(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
