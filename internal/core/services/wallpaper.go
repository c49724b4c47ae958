package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
	"github.com/tabdeck/tabdeck-cli/internal/logger"
)

// Ensure WallpaperService implements the interface.
var _ driving.WallpaperService = (*WallpaperService)(nil)

// WallpaperService manages the two-slot background cache: the image on
// display and a prefetched successor, so a rotation never waits on the
// network.
type WallpaperService struct {
	settings driving.SettingsService
	provider driven.WallpaperProvider
	cache    driven.WallpaperCache

	// Overridable for tests.
	now func() time.Time
}

// NewWallpaperService creates a new wallpaper service.
func NewWallpaperService(settings driving.SettingsService, provider driven.WallpaperProvider, cache driven.WallpaperCache) *WallpaperService {
	return &WallpaperService{
		settings: settings,
		provider: provider,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Current returns the wallpaper to display, fetching one if the cache
// is empty.
func (s *WallpaperService) Current(ctx context.Context) (*domain.CachedWallpaper, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.Get(ctx, domain.WallpaperCurrent)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("reading wallpaper cache: %w", err)
	}

	cached, err = s.fetchInto(ctx, domain.WallpaperCurrent, cfg.Category)
	if err != nil {
		return nil, err
	}
	s.prefetchNext(ctx, cfg.Category)
	return cached, nil
}

// Rotate promotes the prefetched next wallpaper to current, fetching
// directly if no prefetch is available, then prefetches a new next.
func (s *WallpaperService) Rotate(ctx context.Context) (*domain.CachedWallpaper, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	next, err := s.cache.Get(ctx, domain.WallpaperNext)
	switch {
	case err == nil:
		promoted := *next
		promoted.Slot = domain.WallpaperCurrent
		promoted.FetchedAt = s.now()
		if err := s.cache.Put(ctx, &promoted); err != nil {
			return nil, fmt.Errorf("promoting wallpaper: %w", err)
		}
		s.prefetchNext(ctx, cfg.Category)
		return &promoted, nil
	case errors.Is(err, domain.ErrNotFound):
		current, err := s.fetchInto(ctx, domain.WallpaperCurrent, cfg.Category)
		if err != nil {
			return nil, err
		}
		s.prefetchNext(ctx, cfg.Category)
		return current, nil
	default:
		return nil, fmt.Errorf("reading wallpaper cache: %w", err)
	}
}

// RotateIfDue rotates only when the current wallpaper is older than
// the configured interval. Returns true if a rotation happened.
func (s *WallpaperService) RotateIfDue(ctx context.Context) (bool, error) {
	cfg, err := s.config()
	if err != nil {
		return false, err
	}

	current, err := s.cache.Get(ctx, domain.WallpaperCurrent)
	if errors.Is(err, domain.ErrNotFound) {
		_, err := s.Rotate(ctx)
		return err == nil, err
	}
	if err != nil {
		return false, fmt.Errorf("reading wallpaper cache: %w", err)
	}

	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if !current.Stale(interval, s.now()) {
		return false, nil
	}
	if _, err := s.Rotate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *WallpaperService) config() (domain.WallpaperSettings, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return domain.WallpaperSettings{}, fmt.Errorf("reading settings: %w", err)
	}
	if !settings.Wallpaper.Enabled {
		return domain.WallpaperSettings{}, domain.ErrWallpaperDisabled
	}
	return settings.Wallpaper, nil
}

// fetchInto downloads a fresh wallpaper straight into a slot.
func (s *WallpaperService) fetchInto(ctx context.Context, slot domain.WallpaperSlot, category string) (*domain.CachedWallpaper, error) {
	info, image, err := s.provider.Fetch(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("fetching wallpaper: %w", err)
	}
	cached := &domain.CachedWallpaper{
		Slot:      slot,
		Info:      info,
		Image:     image,
		FetchedAt: s.now(),
	}
	if err := s.cache.Put(ctx, cached); err != nil {
		return nil, fmt.Errorf("caching wallpaper: %w", err)
	}
	return cached, nil
}

// prefetchNext fills the next slot on a best-effort basis. Display
// already has its image, so a failed prefetch only costs the next
// rotation a direct fetch.
func (s *WallpaperService) prefetchNext(ctx context.Context, category string) {
	if _, err := s.fetchInto(ctx, domain.WallpaperNext, category); err != nil {
		logger.Debug("Wallpaper prefetch failed: %v", err)
	}
}
