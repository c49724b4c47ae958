package memory

import (
	"context"
	"sync"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// Ensure KVStore implements the interface.
var _ driven.KVStore = (*KVStore)(nil)

// KVStore is an in-memory implementation of driven.KVStore.
type KVStore struct {
	mu     sync.RWMutex
	values map[string]string

	// FailWrites makes every write return a storage error.
	FailWrites bool

	// SetCount tracks the number of Set calls. Used by debounce tests.
	SetCount int
}

// NewKVStore creates a new in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{
		values: make(map[string]string),
	}
}

// Get retrieves a value.
func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return val, nil
}

// Set stores a value.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return domain.ErrStorage
	}
	s.SetCount++
	s.values[key] = value
	return nil
}

// Delete removes a key.
func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return domain.ErrStorage
	}
	delete(s.values, key)
	return nil
}
