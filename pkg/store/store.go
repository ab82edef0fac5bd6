// Package store provides keyed byte storage for persisted layout state and
// session graphs.
//
// # Backends
//
//   - [Memory]: in-process map, for tests, the CLI and single-instance servers
//   - [File]: one JSON file per key, for the CLI across invocations
//   - [Redis]: shared storage for multi-instance servers
//   - [Mongo]: document storage with a TTL index
//   - [Null]: stores nothing
//
// [Scoped] prefixes every key, so several hosts or tenants can share a
// backend without colliding.
//
// # Keys
//
// Layout states are stored under [LayoutKey], which combines the strategy
// name and a session ID:
//
//	store.LayoutKey("fruchterman-reingold", "main") // "layout_fruchterman-reingold_main"
package store

import (
	"context"
	"time"
)

// Store is the interface for key/value backends.
type Store interface {
	// Get retrieves a value. A missing or expired key is a miss
	// (nil, false, nil), never an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl <= 0 means the entry does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKey returns the key under which a layout state is persisted.
func LayoutKey(strategy, id string) string {
	return "layout_" + strategy + "_" + id
}

// GraphKey returns the key under which a session graph is persisted.
func GraphKey(id string) string {
	return "graph:" + id
}
