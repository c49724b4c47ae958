package driving

import (
	"context"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// WallpaperService manages the rotating background cache.
type WallpaperService interface {
	// Current returns the wallpaper to display, fetching one if the
	// cache is empty.
	Current(ctx context.Context) (*domain.CachedWallpaper, error)

	// Rotate promotes the prefetched next wallpaper to current and
	// prefetches a new next. Returns the new current wallpaper.
	Rotate(ctx context.Context) (*domain.CachedWallpaper, error)

	// RotateIfDue rotates only when the current wallpaper is older
	// than the configured interval. Returns true if a rotation
	// happened.
	RotateIfDue(ctx context.Context) (bool, error)
}
