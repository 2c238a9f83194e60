// Package cache stores computed dashboard views in Redis as JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/commerce-insights/internal/metrics"
)

// Store is the contract dashboard services cache through.
type Store interface {
	// Get decodes the entry for key into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst interface{}) (found bool, err error)
	Set(ctx context.Context, key string, v interface{}) error
	// InvalidateAll drops every dashboard entry and returns how many were
	// removed.
	InvalidateAll(ctx context.Context) (int, error)
}

// RedisStore is a Store backed by Redis string keys with a fixed TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store. Keys are namespaced as "<prefix>:dashboard:".
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix + ":dashboard:", ttl: ttl}
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func (s *RedisStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheResults.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	metrics.CacheResults.WithLabelValues("hit").Inc()
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// InvalidateAll removes all keys under the prefix using SCAN + DEL so the
// server is never blocked by KEYS.
func (s *RedisStore) InvalidateAll(ctx context.Context) (int, error) {
	pattern := s.prefix + "*"
	deleted := 0

	iter := s.rdb.Scan(ctx, 0, pattern, 200).Iterator()
	pipe := s.rdb.Pipeline()
	batch := 0

	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		batch++
		deleted++

		if batch >= 500 {
			if _, err := pipe.Exec(ctx); err != nil {
				return 0, fmt.Errorf("cache invalidate pipeline exec: %w", err)
			}
			pipe = s.rdb.Pipeline()
			batch = 0
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}
	if batch > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("cache invalidate pipeline exec (final): %w", err)
		}
	}
	return deleted, nil
}

// Nop is a Store that never holds anything. It is used when Redis is not
// configured.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}) error         { return nil }
func (Nop) InvalidateAll(context.Context) (int, error)             { return 0, nil }
