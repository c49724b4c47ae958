package domain

// Settings holds user-facing application configuration. Values are
// persisted through the ConfigStore port; this struct is the typed
// projection services and UIs work with.
type Settings struct {
	// ShowSearchBar toggles the dashboard search bar.
	ShowSearchBar bool

	// Wallpaper configures background rotation.
	Wallpaper WallpaperSettings

	// WebDAV configures backup sync.
	WebDAV WebDAVSettings
}

// WallpaperSettings configures background image rotation.
type WallpaperSettings struct {
	// Enabled toggles wallpapers entirely.
	Enabled bool

	// IntervalMinutes is the rotation interval.
	IntervalMinutes int

	// Category is the provider-side image category.
	Category string
}

// WebDAVSettings configures the backup sync target.
type WebDAVSettings struct {
	// Enabled toggles sync.
	Enabled bool

	// URL is the WebDAV server base URL.
	URL string

	// Username for basic auth.
	Username string

	// Password for basic auth. Stored encrypted at rest; this field
	// always holds the plaintext.
	Password string
}

// Configured returns true if the settings point at a usable server.
func (w WebDAVSettings) Configured() bool {
	return w.Enabled && w.URL != ""
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() Settings {
	return Settings{
		ShowSearchBar: true,
		Wallpaper: WallpaperSettings{
			Enabled:         false,
			IntervalMinutes: 30,
			Category:        "nature",
		},
	}
}
