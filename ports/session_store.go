package ports

import (
	"context"
	"time"
)

// SessionStore defines the interface for persisting serialized session blobs.
// A zero ttl means the entry never expires.
type SessionStore interface {
	// Set stores a blob under a key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a blob by key. Missing or expired keys return
	// core.ErrSessionNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// ListKeys returns all live keys with the given prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases underlying resources.
	Close() error
}
