package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist. Any other error
// means the cache is unavailable; callers degrade per their documented
// fallback instead of propagating.
var ErrMiss = errors.New("cache: key not found")

// KV is the ephemeral keyed TTL store behind roll windows, bonus balances,
// streak records, opt-out flags and notification idempotency flags.
// Loss of this data degrades gracefully and is never fatal.
type KV interface {
	// Get returns the value for key, or ErrMiss if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores value only if key does not exist yet.
	// Returns true when the value was stored.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// IncrBy atomically adds delta to the integer at key and returns the new value.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// DecrIfPositive atomically decrements the integer at key when it is
	// greater than zero. Returns true when a unit was consumed.
	// The counter never goes negative.
	DecrIfPositive(ctx context.Context, key string) (bool, error)

	// Expire sets a new TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// ScanPrefix returns up to limit keys starting with prefix.
	ScanPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
}
