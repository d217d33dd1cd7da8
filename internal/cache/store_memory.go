package cache

import (
	"context"
	"sync"

	"github.com/designsnack/leadharvest/internal/leads"
)

// MemoryStore is an in-memory CacheStore for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]leads.CacheEntry
	order   []string // most recently put first
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]leads.CacheEntry)}
}

// Get returns the entry for key if present.
func (s *MemoryStore) Get(_ context.Context, key string) (leads.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok, nil
}

// Put stores the entry and moves its key to the front of the index.
func (s *MemoryStore) Put(_ context.Context, key string, entry leads.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		s.removeKeyLocked(key)
	}
	s.entries[key] = entry
	s.order = append([]string{key}, s.order...)
	return nil
}

// Delete removes the entry and its index position. Deleting an absent key is
// a no-op.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	s.removeKeyLocked(key)
	return nil
}

// Keys returns all keys, most recently put first.
func (s *MemoryStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys, nil
}

func (s *MemoryStore) removeKeyLocked(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
