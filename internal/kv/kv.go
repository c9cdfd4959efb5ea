// Package kv abstracts the key-value backend used for token versions and
// audit records. The backend is shared and remote; per-key read-your-write
// consistency is assumed, cross-caller atomicity is not.
package kv

import (
	"context"
	"time"
)

// Store is the persistence contract for the key-value backend.
type Store interface {
	// Get returns the stored value. A missing key is not an error: the
	// second return reports presence.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key. A non-zero ttl is a retention hint the
	// backend may enforce; zero means keep indefinitely.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
