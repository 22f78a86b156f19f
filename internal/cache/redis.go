package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// decrIfPositiveScript consumes one unit only when the counter is positive.
// DECR (not SET) so the key keeps its TTL.
var decrIfPositiveScript = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v <= 0 then return 0 end
redis.call('DECR', KEYS[1])
return 1
`)

// Redis implements KV on a go-redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed KV and verifies connectivity.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client (used by tests and tools).
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *Redis) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incrby %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) DecrIfPositive(ctx context.Context, key string) (bool, error) {
	res, err := decrIfPositiveScript.Run(ctx, r.client, []string{key}).Int()
	if err != nil {
		return false, fmt.Errorf("cache decr-if-positive %s: %w", key, err)
	}
	return res == 1, nil
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (r *Redis) ScanPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	// Bounded number of SCAN pages so a huge keyspace cannot stall a pass.
	for i := 0; i < maxScanPages; i++ {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanPageSize).Result()
		if err != nil {
			return nil, fmt.Errorf("cache scan %s: %w", prefix, err)
		}
		out = append(out, keys...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

// Client exposes the underlying go-redis client for collaborators that need
// richer primitives (the leaderboard's sorted sets).
func (r *Redis) Client() *redis.Client {
	return r.client
}

const (
	maxScanPages = 100
	scanPageSize = 100
)
