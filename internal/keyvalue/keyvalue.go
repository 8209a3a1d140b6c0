// Package keyvalue is a small expiring key-value cache, backed by redis
// when one is configured and by process memory otherwise.
package keyvalue

import (
	"context"
	"time"
)

type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
