// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable wraps connectivity failures of the backing store.
// Callers must treat it as an infrastructure error, never as a missing entry.
var ErrStoreUnavailable = errors.New("entry store unavailable")

// EntryStore defines the driven port for the expiring key-value store that
// holds encoded credential blobs. Expiry is enforced by the adapter: once ttl
// has elapsed an entry must no longer be readable.
type EntryStore interface {
	// Set stores value under key for ttl, replacing any existing entry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value stored under key. found is false when the entry
	// is absent or expired; err is reserved for store failures.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Exists reports whether a live entry is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the entry immediately. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
