// Package storage provides the durable key/value store that client-side state
// such as the notification list is persisted to. Values are opaque bytes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("key not found")

// Storage is a small key/value interface over durable local state.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Dir holds one file per key for the file backend.
	Dir   string
	Redis RedisConfig
}

// New opens the backend named by opts.Backend. An empty backend means file.
// The returned close function releases any connection the backend holds.
func New(ctx context.Context, opts Options) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, nil, fmt.Errorf("file storage: directory is required")
		}
		return NewFileStore(filepath.Clean(opts.Dir)), noop, nil
	case BackendMemory:
		return NewMemory(), noop, nil
	case BackendRedis:
		rs, err := NewRedisStore(ctx, opts.Redis)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
