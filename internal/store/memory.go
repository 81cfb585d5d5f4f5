package store

import (
	"context"
	"sync"
)

// Memory is a mutex-guarded in-process store, used as the default backend
// in development and in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an in-memory store, optionally pre-seeded.
func NewMemory(seed map[string][]byte) *Memory {
	data := make(map[string][]byte, len(seed))
	for k, v := range seed {
		data[k] = cloneBytes(v)
	}
	return &Memory{data: data}
}

func (s *Memory) Fetch(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (s *Memory) Persist(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cloneBytes(value)
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Memory) Ping(_ context.Context) error { return nil }

func (s *Memory) Close() error { return nil }

// Copy on the way in and out so callers cannot mutate stored values.
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
