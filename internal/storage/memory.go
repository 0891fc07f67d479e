package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It is the default backend for tests and
// for hosts that supply their own durable layer.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStore) Set(_ context.Context, key string, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return true
}

func (s *MemoryStore) Remove(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return true
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
