// Package cache holds live provider responses for a short time so repeated
// views do not hit the providers again.
package cache

import (
	"context"
	"fmt"
	"time"

	"curator/internal/core"
)

// Cache stores raw response bodies by request key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}

// New builds the cache selected by config
func New(ctx context.Context, config core.CacheConfig, logger *core.Logger) (Cache, error) {
	switch config.Backend {
	case "memory":
		return NewMemory(time.Now), nil
	case "redis":
		return NewRedis(ctx, config, logger)
	case "none":
		return Noop{}, nil
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown cache backend: %s", config.Backend), nil)
	}
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Close() error { return nil }
