package storage

import (
	"context"
	"sync"

	"github.com/okian/labsync/pkg/metrics"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, entries map[string][]byte) error {
	for k := range entries {
		if k == "" {
			return ErrEmptyKey
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		if v == nil {
			delete(s.values, k)
			continue
		}
		s.values[k] = append([]byte(nil), v...)
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	return s.Put(ctx, deleteEntries(keys))
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func recordOp(backend, op string, err error) {
	metrics.RecordStorageOperation(backend, op, err != nil)
}
