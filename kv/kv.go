// Package kv defines the key-value store contract used by replaycache.
//
// The store owns every piece of state: call counters, call history lists,
// stored entries and cached fetch results. Implementations must be safe for
// concurrent use and must make Incr and IncrAndPush atomic with respect to
// other callers of the same keys.
//
// Important: the keyspaces "<op>", "<op>:inputs", "<op>:outputs", "count:" and
// "cache:" are owned by replaycache. Flush clears everything, including keys
// written by other code.
package kv

import (
	"context"
	"time"
)

// Store is a minimal byte store with counters, lists and TTLs.
type Store interface {
	// Flush removes every key in the store.
	Flush(ctx context.Context) error

	// Incr atomically increments the integer at key (missing => 0) and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss or expiry.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// RPush appends item to the tail of the list at key.
	RPush(ctx context.Context, key string, item []byte) error

	// LRange returns list elements between start and stop inclusive.
	// Negative indexes count from the tail (-1 is the last element).
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// IncrAndPush increments counterKey and appends item to listKey as one
	// atomic step and returns the new counter value. No other caller observes
	// the counter and the list out of step. When the push fails, local stores
	// roll the increment back; redis does not (EXEC applies the INCR even if
	// the RPUSH errors), so the counter may run one ahead of the list.
	IncrAndPush(ctx context.Context, counterKey, listKey string, item []byte) (int64, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
