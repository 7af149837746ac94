// Package cache provides an optional JSON response cache for read endpoints.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	// Get decodes the value at key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	// Set encodes value and stores it at key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Nop is a Cache that never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set discards value.
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

// Load returns the cached value at key, or calls load and caches its result for ttl.
// Cache failures are logged and fall through to load.
func Load[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c == nil || ttl <= 0 {
		return load(ctx)
	}

	found, err := c.Get(ctx, key, &v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if found {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}

var (
	_ Cache = (*Redis)(nil)
	_ Cache = Nop{}
)
