package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss marks an absent (or expired) key. Every other error from a Store is
// a backend failure and is handled fail-open by Client.
var ErrMiss = errors.New("cache: miss")

// Store is the backend key/value contract: Redis in production, the
// in-process store for single-node setups and tests. Construct one at process
// start, Close it at shutdown.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}
