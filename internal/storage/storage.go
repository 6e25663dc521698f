// Package storage provides the durable key-value capability the session
// layer persists into. Backends: an in-memory map, a JSON file in the
// user's home directory, and Redis.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
)

// KV is a small string key-value store.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Open builds the backend selected by cfg.SessionBackend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (KV, func() error, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return NewMemory(), func() error { return nil }, nil
	case config.SessionBackendRedis:
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisKV(rdb, "examtester:"), rdb.Close, nil
	case config.SessionBackendFile:
		kv, err := NewFile(cfg.SessionFile)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", cfg.SessionFile).Msg("Using file session store")
		return kv, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
