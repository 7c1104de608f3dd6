package memory

import (
	"context"
	"sync"

	"leasehub/internal/app/middleware"
)

type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, true, nil
}

// Save keeps the first record stored for a key.
func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[rec.Key]; exists {
		return nil
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	s.items[rec.Key] = rec
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
