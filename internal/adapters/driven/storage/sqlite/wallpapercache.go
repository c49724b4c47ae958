package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// wallpaperCache implements driven.WallpaperCache. Image bytes live in
// a BLOB column; the metadata rides along as JSON.
type wallpaperCache struct {
	store *Store
}

var _ driven.WallpaperCache = (*wallpaperCache)(nil)

// Get retrieves a cached wallpaper by slot.
func (c *wallpaperCache) Get(ctx context.Context, slot domain.WallpaperSlot) (*domain.CachedWallpaper, error) {
	if !slot.IsValid() {
		return nil, fmt.Errorf("%w: unknown wallpaper slot %q", domain.ErrInvalidInput, slot)
	}

	row := c.store.db.QueryRowContext(ctx, `
		SELECT info, image, fetched_at FROM wallpapers WHERE slot = ?
	`, string(slot))

	var infoJSON string
	var image []byte
	var fetchedAt time.Time
	if err := row.Scan(&infoJSON, &image, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading wallpaper %s: %v", domain.ErrStorage, slot, err)
	}

	cached := &domain.CachedWallpaper{
		Slot:      slot,
		Image:     image,
		FetchedAt: fetchedAt,
	}
	if err := json.Unmarshal([]byte(infoJSON), &cached.Info); err != nil {
		return nil, fmt.Errorf("decoding wallpaper info: %w", err)
	}
	return cached, nil
}

// Put stores a wallpaper in its slot, replacing any previous one.
func (c *wallpaperCache) Put(ctx context.Context, cached *domain.CachedWallpaper) error {
	if !cached.Slot.IsValid() {
		return fmt.Errorf("%w: unknown wallpaper slot %q", domain.ErrInvalidInput, cached.Slot)
	}

	infoJSON, err := json.Marshal(cached.Info)
	if err != nil {
		return fmt.Errorf("encoding wallpaper info: %w", err)
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO wallpapers (slot, info, image, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			info = excluded.info,
			image = excluded.image,
			fetched_at = excluded.fetched_at
	`, string(cached.Slot), string(infoJSON), cached.Image, cached.FetchedAt)
	if err != nil {
		return fmt.Errorf("%w: writing wallpaper %s: %v", domain.ErrStorage, cached.Slot, err)
	}
	return nil
}
