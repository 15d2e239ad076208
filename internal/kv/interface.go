// Package kv provides the persistent string key-value medium the page caches,
// session state and history ledgers are written to.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/config"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("kv: key not found")
	// ErrQuotaExceeded is returned by Set when the medium is full.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Store is a string-only key-value medium. Callers serialise values themselves.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.Memory.Capacity), nil
	case "file":
		return NewFileStore(cfg.File)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite)
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
