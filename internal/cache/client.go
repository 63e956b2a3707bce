package cache

import (
	"context"
	"strings"
	"time"

	applog "driveshare/internal/log"
)

// TTLs per resource namespace. Anything unlisted gets the default.
const (
	TTLCars     = 300 * time.Second
	TTLUsers    = 600 * time.Second
	TTLBookings = 180 * time.Second
	ttlDefault  = 60 * time.Second
)

// TTLFor maps a cache key to its policy TTL by leading namespace.
func TTLFor(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, "cars"), strings.HasPrefix(key, "availability"):
		return TTLCars
	case strings.HasPrefix(key, "users"):
		return TTLUsers
	case strings.HasPrefix(key, "bookings"):
		return TTLBookings
	}
	return ttlDefault
}

// Client wraps a Store with the fail-open policy: a broken cache backend is
// logged and treated as a miss or a no-op, never surfaced to the caller.
type Client struct {
	store Store
}

func NewClient(store Store) *Client { return &Client{store: store} }

// Get returns the cached value and true on a hit. Backend errors and expired
// entries both read as misses.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	val, err := c.store.Get(ctx, key)
	if err == ErrMiss {
		return nil, false
	}
	if err != nil {
		applog.Error(nil, "cache.get.fail", err, map[string]any{"key": key})
		return nil, false
	}
	return val, true
}

// Set stores a value under the namespace's policy TTL. Last writer wins.
func (c *Client) Set(ctx context.Context, key string, value []byte) {
	c.SetTTL(ctx, key, value, TTLFor(key))
}

func (c *Client) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		applog.Error(nil, "cache.set.fail", err, map[string]any{"key": key})
	}
}

// Invalidate drops every entry under the given namespace prefixes. Called
// after writes; fire-and-forget, errors only logged.
func (c *Client) Invalidate(ctx context.Context, prefixes ...string) {
	if c == nil || c.store == nil {
		return
	}
	for _, p := range prefixes {
		if err := c.store.DeleteByPrefix(ctx, p); err != nil {
			applog.Error(nil, "cache.invalidate.fail", err, map[string]any{"prefix": p})
		}
	}
}

func (c *Client) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
