package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// itemStore implements driven.ItemStore. Records are stored as their
// tagged JSON form; type, created_at and updated_at are mirrored into
// columns for querying.
type itemStore struct {
	store *Store
}

var _ driven.ItemStore = (*itemStore)(nil)

// GetAll retrieves every grid item record.
func (s *itemStore) GetAll(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT data FROM grid_items ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: scanning item: %v", domain.ErrStorage, err)
		}
		item, err := domain.UnmarshalItem([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("decoding item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating items: %v", domain.ErrStorage, err)
	}
	return items, nil
}

// Put stores or updates one item record.
func (s *itemStore) Put(ctx context.Context, item domain.Item) error {
	return s.putTx(ctx, s.store.db, item)
}

// BulkPut stores or updates a batch of item records in one transaction.
func (s *itemStore) BulkPut(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if err := s.putTx(ctx, tx, item); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %v", domain.ErrStorage, err)
	}
	return nil
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *itemStore) putTx(ctx context.Context, db execer, item domain.Item) error {
	data, err := domain.MarshalItem(item)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}
	meta := item.Meta()
	_, err = db.ExecContext(ctx, `
		INSERT INTO grid_items (id, type, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, meta.ID, string(item.Type()), string(data), meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: saving item %s: %v", domain.ErrStorage, meta.ID, err)
	}
	return nil
}

// Delete removes one item record. Deleting a missing id is not an
// error.
func (s *itemStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM grid_items WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: deleting item %s: %v", domain.ErrStorage, id, err)
	}
	return nil
}

// BulkDelete removes a batch of item records.
func (s *itemStore) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM grid_items WHERE id IN (%s)", placeholders)
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: deleting %d items: %v", domain.ErrStorage, len(ids), err)
	}
	return nil
}

// Clear removes every item record.
func (s *itemStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM grid_items"); err != nil {
		return fmt.Errorf("%w: clearing items: %v", domain.ErrStorage, err)
	}
	return nil
}
