package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"driveshare/internal/cache"
)

// brokenStore fails every operation, simulating an unreachable backend.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}
func (brokenStore) DeleteByPrefix(context.Context, string) error {
	return errors.New("backend down")
}
func (brokenStore) Close() error { return nil }

func TestClientRoundTrip(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	cc := cache.NewClient(store)
	ctx := context.Background()

	if _, ok := cc.Get(ctx, "cars:1"); ok {
		t.Fatal("empty cache should miss")
	}
	cc.Set(ctx, "cars:1", []byte(`{"id":"1"}`))
	val, ok := cc.Get(ctx, "cars:1")
	if !ok || string(val) != `{"id":"1"}` {
		t.Fatalf("want hit with stored value, got ok=%v val=%q", ok, val)
	}
}

func TestClientExpiry(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	cc := cache.NewClient(store)
	ctx := context.Background()

	cc.SetTTL(ctx, "cars:1", []byte("x"), 50*time.Millisecond)
	if _, ok := cc.Get(ctx, "cars:1"); !ok {
		t.Fatal("entry should be live inside its TTL")
	}
	time.Sleep(120 * time.Millisecond)
	if _, ok := cc.Get(ctx, "cars:1"); ok {
		t.Fatal("expired entry must read as a miss")
	}
}

func TestClientInvalidateByPrefix(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	cc := cache.NewClient(store)
	ctx := context.Background()

	cc.Set(ctx, "cars:abc", []byte("1"))
	cc.Set(ctx, "cars:abc?start=2025-01-01", []byte("2"))
	cc.Set(ctx, "bookings:u1", []byte("3"))

	cc.Invalidate(ctx, "cars:abc")

	if _, ok := cc.Get(ctx, "cars:abc"); ok {
		t.Fatal("invalidated key still served")
	}
	if _, ok := cc.Get(ctx, "cars:abc?start=2025-01-01"); ok {
		t.Fatal("invalidated namespace entry still served")
	}
	if _, ok := cc.Get(ctx, "bookings:u1"); !ok {
		t.Fatal("unrelated namespace was dropped")
	}
}

func TestClientFailOpen(t *testing.T) {
	cc := cache.NewClient(brokenStore{})
	ctx := context.Background()

	// None of these may panic or surface an error to the caller.
	if _, ok := cc.Get(ctx, "cars:1"); ok {
		t.Fatal("broken backend must read as a miss")
	}
	cc.Set(ctx, "cars:1", []byte("x"))
	cc.Invalidate(ctx, "cars")
}

func TestTTLPolicy(t *testing.T) {
	cases := map[string]time.Duration{
		"cars":             cache.TTLCars,
		"cars:abc":         cache.TTLCars,
		"availability:abc": cache.TTLCars,
		"users:u1":         cache.TTLUsers,
		"bookings:u1":      cache.TTLBookings,
		"something-else":   60 * time.Second,
	}
	for key, want := range cases {
		if got := cache.TTLFor(key); got != want {
			t.Fatalf("TTLFor(%q) = %v, want %v", key, got, want)
		}
	}
}
