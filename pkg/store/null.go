package store

import (
	"context"
	"time"
)

// Null is a no-op store that never keeps anything.
// Every Get is a miss, so layouts always start from defaults.
type Null struct{}

// NewNull creates a null store.
func NewNull() Store {
	return &Null{}
}

// Get always returns a miss.
func (s *Null) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (s *Null) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (s *Null) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (s *Null) Close() error {
	return nil
}

// Ensure Null implements Store.
var _ Store = (*Null)(nil)
