package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent from the store.
var ErrNotFound = errors.New("key not found")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// It is never masked: callers rely on the store being the single source of
// truth, so a failed operation must not silently fall back to a local path.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store is the coordination contract every stateful component is built on.
// The two atomic primitives, CreateOrGet and GetDelete, are the only
// operations allowed for race-sensitive state (topic records and connection
// tokens); the plain getters/setters cover profile storage.
type Store interface {
	// CreateOrGet atomically sets key to value if the key is absent and
	// returns the value now stored. If another writer got there first, the
	// existing value is returned unchanged. There is no read-then-write
	// window: concurrent callers for the same key all observe one winner.
	CreateOrGet(ctx context.Context, key, value string) (string, error)

	// GetDelete atomically reads and removes key. At most one concurrent
	// caller observes the value; everyone else gets ErrNotFound.
	GetDelete(ctx context.Context, key string) (string, error)

	// SetTTL stores value under key with an expiry after which the store
	// removes it on its own.
	SetTTL(ctx context.Context, key, value string, ttl time.Duration) error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
