package memory

import (
	"context"
	"sync"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// Ensure WallpaperCache implements the interface.
var _ driven.WallpaperCache = (*WallpaperCache)(nil)

// WallpaperCache is an in-memory implementation of driven.WallpaperCache.
type WallpaperCache struct {
	mu    sync.RWMutex
	slots map[domain.WallpaperSlot]domain.CachedWallpaper
}

// NewWallpaperCache creates a new in-memory wallpaper cache.
func NewWallpaperCache() *WallpaperCache {
	return &WallpaperCache{
		slots: make(map[domain.WallpaperSlot]domain.CachedWallpaper),
	}
}

// Get retrieves a cached wallpaper.
func (c *WallpaperCache) Get(_ context.Context, slot domain.WallpaperSlot) (*domain.CachedWallpaper, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.slots[slot]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cached
	out.Image = append([]byte(nil), cached.Image...)
	return &out, nil
}

// Put stores a wallpaper in a slot.
func (c *WallpaperCache) Put(_ context.Context, cached *domain.CachedWallpaper) error {
	if !cached.Slot.IsValid() {
		return domain.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *cached
	stored.Image = append([]byte(nil), cached.Image...)
	c.slots[cached.Slot] = stored
	return nil
}
