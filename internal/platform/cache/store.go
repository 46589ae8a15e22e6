package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/legendpaul/sportsapp/internal/platform/resilience"
)

type entry struct {
	value    any
	storedAt time.Time
	size     int64
}

// Store is a best-effort side table keyed by logical dataset name. Freshness
// is decided per read against the caller's TTL, so an expired entry stays
// readable as a stale fallback until the byte budget pushes it out.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]entry
	maxBytes int64
	used     int64
	flight   resilience.SingleFlight
	now      func() time.Time
}

// NewStore builds a store bounded by maxBytes of encoded payload; zero or
// negative disables the bound.
func NewStore(maxBytes int64) *Store {
	return &Store{
		entries:  make(map[string]entry),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Get returns the value only while now - storedAt <= ttl.
func (s *Store) Get(_ context.Context, key string, ttl time.Duration) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if ttl > 0 && s.now().Sub(e.storedAt) > ttl {
		return nil, false
	}
	return e.value, true
}

// GetStale returns the value at any age together with when it was written.
func (s *Store) GetStale(_ context.Context, key string) (any, time.Time, bool) {
	if key == "" {
		return nil, time.Time{}, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.storedAt, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	size := encodedSize(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.used -= old.size
		delete(s.entries, key)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return
	}

	s.entries[key] = entry{value: value, storedAt: s.now(), size: size}
	s.used += size
	s.evictOldestLocked()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	if old, ok := s.entries[key]; ok {
		s.used -= old.size
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// Usage reports the entry count and the encoded bytes currently held.
func (s *Store) Usage() (int, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), s.used
}

// GetOrLoad serves a fresh entry or runs loader once across concurrent callers.
func (s *Store) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key, ttl); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key, ttl); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// evictOldestLocked drops entries by ascending write time until the budget holds.
func (s *Store) evictOldestLocked() {
	if s.maxBytes <= 0 {
		return
	}
	for s.used > s.maxBytes && len(s.entries) > 0 {
		var (
			oldestKey string
			oldestAt  time.Time
			first     = true
		)
		for key, e := range s.entries {
			if first || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt, first = key, e.storedAt, false
			}
		}
		s.used -= s.entries[oldestKey].size
		delete(s.entries, oldestKey)
	}
}

func encodedSize(value any) int64 {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return 1
	}
	return int64(len(raw))
}
