package driven

import (
	"context"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// ItemStore persists grid item records keyed by id. It has no ordering
// or hierarchy knowledge; that lives in the index. Backed by SQLite.
//
// Failed writes surface as errors wrapping domain.ErrStorage. Callers
// that fire and forget must not assume persistence succeeded.
type ItemStore interface {
	// GetAll returns every stored item.
	GetAll(ctx context.Context) ([]domain.Item, error)

	// Put upserts a single item by id.
	Put(ctx context.Context, item domain.Item) error

	// BulkPut upserts a batch of items.
	BulkPut(ctx context.Context, items []domain.Item) error

	// Delete removes an item. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes a batch of items.
	BulkDelete(ctx context.Context, ids []string) error

	// Clear removes every item.
	Clear(ctx context.Context) error
}
