package memory

import (
	"context"
	"sync"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// Ensure ItemStore implements the interface.
var _ driven.ItemStore = (*ItemStore)(nil)

// ItemStore is an in-memory implementation of driven.ItemStore.
// Items are deep-copied on the way in and out so callers cannot mutate
// stored records behind the store's back.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string]domain.Item

	// FailWrites makes every write return a storage error. Used to
	// test optimistic in-memory behaviour under persistence failure.
	FailWrites bool
}

// NewItemStore creates a new in-memory item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string]domain.Item),
	}
}

func copyItem(it domain.Item) domain.Item {
	switch v := it.(type) {
	case *domain.Site:
		c := *v
		if v.Position != nil {
			pos := *v.Position
			c.Position = &pos
		}
		if v.ParentID != nil {
			pid := *v.ParentID
			c.ParentID = &pid
		}
		return &c
	case *domain.Folder:
		c := *v
		if v.Position != nil {
			pos := *v.Position
			c.Position = &pos
		}
		return &c
	default:
		return it
	}
}

func (s *ItemStore) failure() error {
	if s.FailWrites {
		return domain.ErrStorage
	}
	return nil
}

// GetAll returns every stored item.
func (s *ItemStore) GetAll(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyItem(it))
	}
	return out, nil
}

// Get retrieves a single item. Test helper, not part of the port.
func (s *ItemStore) Get(id string) (domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return copyItem(it), true
}

// Len returns the number of stored items. Test helper.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Put upserts a single item by id.
func (s *ItemStore) Put(_ context.Context, item domain.Item) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.Meta().ID] = copyItem(item)
	return nil
}

// BulkPut upserts a batch of items.
func (s *ItemStore) BulkPut(_ context.Context, items []domain.Item) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.Meta().ID] = copyItem(it)
	}
	return nil
}

// Delete removes an item.
func (s *ItemStore) Delete(_ context.Context, id string) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// BulkDelete removes a batch of items.
func (s *ItemStore) BulkDelete(_ context.Context, ids []string) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

// Clear removes every item.
func (s *ItemStore) Clear(_ context.Context) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]domain.Item)
	return nil
}
