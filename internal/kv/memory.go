package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. A positive capacity bounds the
// total size of keys plus values, mimicking browser storage quotas.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]string
	size     int
	capacity int
}

// NewMemoryStore creates an in-memory store; capacity <= 0 means unbounded.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]string),
		capacity: capacity,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.size + len(key) + len(value)
	if old, ok := s.items[key]; ok {
		next -= len(key) + len(old)
	}
	if s.capacity > 0 && next > s.capacity {
		return ErrQuotaExceeded
	}

	s.items[key] = value
	s.size = next
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) Close() error {
	return nil
}
