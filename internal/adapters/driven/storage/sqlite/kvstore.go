package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// kvStore implements driven.KVStore.
type kvStore struct {
	store *Store
}

var _ driven.KVStore = (*kvStore)(nil)

// Get retrieves a value by key.
func (s *kvStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	row := s.store.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: reading key %s: %v", domain.ErrStorage, key, err)
	}
	return value, nil
}

// Set stores a value under key.
func (s *kvStore) Set(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: writing key %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *kvStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: deleting key %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}
