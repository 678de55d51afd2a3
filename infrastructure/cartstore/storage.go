package cartstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Storage.Load when no record exists for a key.
	ErrNotFound = errors.New("cart record not found")

	// ErrWatchUnsupported is returned by Store.Watch when the storage has no change feed.
	ErrWatchUnsupported = errors.New("storage does not support change notifications")
)

// Storage is durable per-device key/value storage for the serialized cart.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte, origin string) error
}

// Change announces that key was rewritten by origin.
type Change struct {
	Key    string
	Origin string
}

// Watcher is implemented by storages that can notify about writes made by
// other store instances sharing the same record.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan Change, error)
}
