// Package store provides the durable persistence adapter for progress
// documents: a preferred structured backend (MySQL), a key-value fallback
// (Redis) and an in-memory last resort, selected by a real write/delete
// probe and swapped silently when a backend starts failing.
package store

import (
	"context"
	"sync"
)

// Store is uniform byte-document persistence over one backend.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Probe verifies the backend is usable via a throwaway write/delete
	// round-trip under a reserved key, not a feature check.
	Probe(ctx context.Context) bool
}

// probeKeyPrefix namespaces probe writes away from real documents.
const probeKeyPrefix = "probe:"

// MemoryStore is a map-backed Store. It is the degraded-mode backend and the
// test double; it never fails.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Probe(_ context.Context) bool {
	return true
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
