package domain

import "time"

// WallpaperSlot names the two cached wallpaper positions: the image
// currently shown and the prefetched successor.
type WallpaperSlot string

// Cache slots.
const (
	WallpaperCurrent WallpaperSlot = "current"
	WallpaperNext    WallpaperSlot = "next"
)

// IsValid returns true if the slot is recognised.
func (s WallpaperSlot) IsValid() bool {
	return s == WallpaperCurrent || s == WallpaperNext
}

// WallpaperInfo describes a background image and its attribution.
type WallpaperInfo struct {
	// ID is the provider-side image identifier.
	ID string

	// URL is the full-size image address.
	URL string

	// ThumbURL is a small preview address.
	ThumbURL string

	// Author is the photographer's display name.
	Author string

	// AuthorURL links to the photographer's page.
	AuthorURL string

	// DownloadURL is the provider's tracked download endpoint.
	DownloadURL string
}

// CachedWallpaper is a wallpaper stored locally with its image bytes,
// ready to display without a network round trip.
type CachedWallpaper struct {
	// Slot is the cache position.
	Slot WallpaperSlot

	// Info is the image metadata.
	Info WallpaperInfo

	// Image is the raw image payload.
	Image []byte

	// FetchedAt is when the image was downloaded.
	FetchedAt time.Time
}

// Stale returns true if the cached image is older than the rotation
// interval.
func (c *CachedWallpaper) Stale(interval time.Duration, now time.Time) bool {
	return now.Sub(c.FetchedAt) >= interval
}
