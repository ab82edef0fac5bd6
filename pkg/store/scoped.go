package store

import (
	"context"
	"time"
)

// Scoped wraps a Store with a key prefix for isolation.
// This is useful when several hosts or tenants share one backend.
//
// Example usage:
//
//	// Per-user layout states on a shared Redis
//	userStore := store.NewScoped(redisStore, "user:abc123:")
type Scoped struct {
	inner  Store
	prefix string
}

// NewScoped creates a store that prepends prefix to every key.
// A nil inner store is replaced by a Null store.
func NewScoped(inner Store, prefix string) *Scoped {
	if inner == nil {
		inner = NewNull()
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the key prefix.
func (s *Scoped) Prefix() string { return s.prefix }

// Get retrieves a prefixed key.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores a prefixed key.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes a prefixed key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the wrapped store.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

// Ensure Scoped implements Store.
var _ Store = (*Scoped)(nil)
