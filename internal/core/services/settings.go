package services

import (
	"fmt"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyShowSearchBar     = "dashboard.show_search_bar"
	keyWallpaperEnabled  = "wallpaper.enabled"
	keyWallpaperInterval = "wallpaper.interval_minutes"
	keyWallpaperCategory = "wallpaper.category"
	keyWebDAVEnabled     = "webdav.enabled"
	keyWebDAVURL         = "webdav.url"
	keyWebDAVUsername    = "webdav.username"
	keyWebDAVPassword    = "webdav.password"
)

// SettingsService manages application settings. Credentials are
// encrypted before they reach the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	cipher      *CredentialCipher
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, cipher *CredentialCipher) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		cipher:      cipher,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	password, err := s.cipher.Decrypt(s.configStore.GetString(keyWebDAVPassword))
	if err != nil {
		return nil, fmt.Errorf("reading webdav password: %w", err)
	}

	settings := &domain.Settings{
		ShowSearchBar: s.getBool(keyShowSearchBar, defaults.ShowSearchBar),
		Wallpaper: domain.WallpaperSettings{
			Enabled:         s.getBool(keyWallpaperEnabled, defaults.Wallpaper.Enabled),
			IntervalMinutes: s.getInt(keyWallpaperInterval, defaults.Wallpaper.IntervalMinutes),
			Category:        s.getString(keyWallpaperCategory, defaults.Wallpaper.Category),
		},
		WebDAV: domain.WebDAVSettings{
			Enabled:  s.getBool(keyWebDAVEnabled, false),
			URL:      s.configStore.GetString(keyWebDAVURL),
			Username: s.configStore.GetString(keyWebDAVUsername),
			Password: password,
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := s.configStore.Set(keyShowSearchBar, settings.ShowSearchBar); err != nil {
		return fmt.Errorf("save search bar: %w", err)
	}
	if err := s.setWallpaper(settings.Wallpaper); err != nil {
		return err
	}
	if err := s.setWebDAV(settings.WebDAV); err != nil {
		return err
	}
	return s.configStore.Save()
}

// SetSearchBar toggles the dashboard search bar.
func (s *SettingsService) SetSearchBar(show bool) error {
	if err := s.configStore.Set(keyShowSearchBar, show); err != nil {
		return fmt.Errorf("save search bar: %w", err)
	}
	return s.configStore.Save()
}

// SetWallpaper updates wallpaper rotation settings.
func (s *SettingsService) SetWallpaper(wp domain.WallpaperSettings) error {
	if err := s.setWallpaper(wp); err != nil {
		return err
	}
	return s.configStore.Save()
}

// SetWebDAV updates the backup sync target.
func (s *SettingsService) SetWebDAV(cfg domain.WebDAVSettings) error {
	if err := s.setWebDAV(cfg); err != nil {
		return err
	}
	return s.configStore.Save()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (s *SettingsService) setWallpaper(wp domain.WallpaperSettings) error {
	if wp.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: wallpaper interval must be positive", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyWallpaperEnabled, wp.Enabled); err != nil {
		return fmt.Errorf("save wallpaper enabled: %w", err)
	}
	if err := s.configStore.Set(keyWallpaperInterval, wp.IntervalMinutes); err != nil {
		return fmt.Errorf("save wallpaper interval: %w", err)
	}
	if err := s.configStore.Set(keyWallpaperCategory, wp.Category); err != nil {
		return fmt.Errorf("save wallpaper category: %w", err)
	}
	return nil
}

func (s *SettingsService) setWebDAV(cfg domain.WebDAVSettings) error {
	if cfg.Enabled && cfg.URL == "" {
		return fmt.Errorf("%w: webdav url is required when sync is enabled", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyWebDAVEnabled, cfg.Enabled); err != nil {
		return fmt.Errorf("save webdav enabled: %w", err)
	}
	if err := s.configStore.Set(keyWebDAVURL, cfg.URL); err != nil {
		return fmt.Errorf("save webdav url: %w", err)
	}
	if err := s.configStore.Set(keyWebDAVUsername, cfg.Username); err != nil {
		return fmt.Errorf("save webdav username: %w", err)
	}
	if cfg.Password != "" {
		sealed, err := s.cipher.Encrypt(cfg.Password)
		if err != nil {
			return fmt.Errorf("encrypt webdav password: %w", err)
		}
		if err := s.configStore.Set(keyWebDAVPassword, sealed); err != nil {
			return fmt.Errorf("save webdav password: %w", err)
		}
	}
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}
