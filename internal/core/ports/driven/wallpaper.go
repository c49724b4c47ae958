package driven

import (
	"context"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// WallpaperProvider fetches background images from an external source.
type WallpaperProvider interface {
	// Fetch retrieves a random image for the category, returning its
	// metadata and raw bytes.
	Fetch(ctx context.Context, category string) (domain.WallpaperInfo, []byte, error)
}

// WallpaperCache stores downloaded wallpapers locally in the current
// and next slots.
type WallpaperCache interface {
	// Get retrieves a cached wallpaper. Returns domain.ErrNotFound for
	// an empty slot.
	Get(ctx context.Context, slot domain.WallpaperSlot) (*domain.CachedWallpaper, error)

	// Put stores a wallpaper in a slot, replacing any previous one.
	Put(ctx context.Context, cached *domain.CachedWallpaper) error
}
