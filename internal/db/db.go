// Package db is the cache database facade. Only plain key-value commands
// are needed: resource details are stored as JSON blobs and extraction
// budgets as counters.
package db

import (
	"context"
	"time"
)

// Store is everything the service needs from the cache.
type Store interface {
	Pinger
	Blobs
	Counters
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Blobs stores opaque values with an expiry.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Counters are integer keys with an expiry.
type Counters interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
