package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value cache with expiry.
type Store interface {
	// Get returns the cached bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Name() string
	Close() error
}
