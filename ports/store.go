package ports

import (
	"context"
	"time"
)

// Store is a plain key-value blob store. There is no conditional write
// and no multi-key transaction: every read-modify-write sequence is racy
// and callers must keep mutable state scoped to a single key so races
// stay bounded.
type Store interface {
	// Get returns the value stored under key, or core.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
