package driving

import "github.com/tabdeck/tabdeck-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, decrypting stored
	// credentials.
	Get() (*domain.Settings, error)

	// Save persists application settings, encrypting credentials at
	// rest.
	Save(settings *domain.Settings) error

	// SetSearchBar toggles the dashboard search bar.
	SetSearchBar(show bool) error

	// SetWallpaper updates wallpaper rotation settings.
	SetWallpaper(wp domain.WallpaperSettings) error

	// SetWebDAV updates the backup sync target.
	SetWebDAV(cfg domain.WebDAVSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
