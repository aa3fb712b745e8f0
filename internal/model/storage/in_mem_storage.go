package storage

import (
	"context"
	"sync"
)

type InMemGateway struct {
	mu sync.RWMutex
	kv map[string][]byte
}

func NewInMemGateway() *InMemGateway {
	return &InMemGateway{kv: make(map[string][]byte)}
}

func (s *InMemGateway) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.kv[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (s *InMemGateway) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.kv[key] = cp
	return nil
}
