// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package changes

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// redisPrefix namespaces record keys.
const redisPrefix = "brush:change:"

// RedisStore keeps records as JSON values with a Redis TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code(CodeStoreFailure).With("operation", "parse redis url").Wrap(err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code(CodeStoreFailure).With("operation", "connect to redis").Wrap(err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(document string) string {
	return redisPrefix + document
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return oops.Code(CodeStoreFailure).With("operation", "marshal record").Wrap(err)
	}
	if err := s.client.Set(ctx, s.key(rec.Document), data, s.ttl).Err(); err != nil {
		return oops.Code(CodeStoreFailure).
			With("operation", "save change").
			With("document", rec.Document).
			Wrap(err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, document string) (Record, error) {
	data, err := s.client.Get(ctx, s.key(document)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound(document)
	}
	if err != nil {
		return Record{}, oops.Code(CodeStoreFailure).
			With("operation", "load change").
			With("document", document).
			Wrap(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, oops.Code(CodeStoreFailure).
			With("operation", "unmarshal record").
			With("document", document).
			Wrap(err)
	}
	return rec, nil
}

// Forget implements Store.
func (s *RedisStore) Forget(ctx context.Context, document string) error {
	if err := s.client.Del(ctx, s.key(document)).Err(); err != nil {
		return oops.Code(CodeStoreFailure).
			With("operation", "forget change").
			With("document", document).
			Wrap(err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
