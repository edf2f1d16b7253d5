package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with a process-wide map.
// This is the primary backend: entries live for the lifetime of the
// process, staleness is decided by readers against the TTL table, and
// there is no capacity bound. Keys are drawn from a finite slug space so
// unbounded growth is an accepted trade-off.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Get retrieves the entry for key, nil if absent. Stale entries are
// returned as-is; the caller applies the freshness check.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Set stores value under key with the current time, overwriting any
// prior entry. The ttl is ignored here; readers check freshness.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{Value: value, StoredAt: time.Now()}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
