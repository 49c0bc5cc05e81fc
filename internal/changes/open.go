// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package changes

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Backends accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects and configures a Store.
type Config struct {
	Backend     string        `koanf:"backend"`
	RedisURL    string        `koanf:"redis_url"`
	DatabaseURL string        `koanf:"database_url"`
	TTL         time.Duration `koanf:"ttl"`
}

// Open returns the store named by cfg.Backend. An empty backend is memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, oops.Code(CodeUnknownStore).Errorf("changes.redis_url is required for the redis backend")
		}
		return NewRedisStore(ctx, cfg.RedisURL, cfg.TTL)
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, oops.Code(CodeUnknownStore).Errorf("changes.database_url is required for the postgres backend")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.TTL)
	default:
		return nil, oops.Code(CodeUnknownStore).With("backend", cfg.Backend).Errorf("unknown changes backend %q", cfg.Backend)
	}
}
