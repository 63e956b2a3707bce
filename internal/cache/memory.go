package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store: a mutex-guarded map with absolute
// expiry timestamps, lazy eviction on read, and a janitor goroutine clearing
// out what nobody reads.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	stopCh  chan struct{}
	now     func() time.Time // overridable in tests
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	close(s.stopCh)
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for k, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}
