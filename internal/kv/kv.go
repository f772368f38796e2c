// Package kv provides the string-keyed persistence substrate the rest of the
// application stores its blobs in. The contract is deliberately thin:
// get/set/delete on opaque string values, no transactions, no schema.
package kv

import (
	"context"
	"fmt"
)

// Store is a string-keyed blob store. Implementations are safe for
// concurrent use and treat every call as synchronous and atomic.
type Store interface {
	// Get returns the value for key and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend     string // "memory", "sqlite" or "redis"
	SQLitePath  string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
