// Package cli implements the command-line interface for tabdeck.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/config/file"
	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/storage/sqlite"
	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/wallpaper"
	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/webdav"
	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
	"github.com/tabdeck/tabdeck-cli/internal/core/services"
	"github.com/tabdeck/tabdeck-cli/internal/logger"
)

// version is set by Execute.
var version = "dev"

// Persistent flags.
var (
	flagVerbose bool
	flagDataDir string
)

// Wired services. Tests inject these directly; initServices fills in
// whatever is still nil.
var (
	store            *sqlite.Store
	gridService      *services.GridService
	settingsService  driving.SettingsService
	backupService    driving.BackupService
	wallpaperService driving.WallpaperService
)

var rootCmd = &cobra.Command{
	Use:   "tabdeck",
	Short: "Manage your new-tab dashboard grid",
	Long: `tabdeck manages the new-tab dashboard: a grid of sites and
single-level folders, plus backups, sync and rotating wallpapers.

All data lives under ~/.tabdeck by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return initServices(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return teardown(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.tabdeck)")
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

// initServices wires adapters and services. Anything already set, by a
// test or a previous run, is left alone.
func initServices(ctx context.Context) error {
	if gridService != nil {
		// Already wired, by a test or a previous run.
		return nil
	}

	baseDir := flagDataDir
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".tabdeck")
	}

	var err error
	store, err = sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	cipher, err := services.NewCredentialCipher(filepath.Join(baseDir, "credential.key"))
	if err != nil {
		return fmt.Errorf("loading credential key: %w", err)
	}

	if settingsService == nil {
		settingsService = services.NewSettingsService(configStore, cipher)
	}

	if gridService == nil {
		gridService = services.NewGridService(store.ItemStore(), store.KVStore())
		if err := gridService.Load(ctx); err != nil {
			return fmt.Errorf("loading grid: %w", err)
		}
	}

	if backupService == nil {
		backupService = services.NewBackupService(gridService, syncTransport())
	}

	if wallpaperService == nil {
		wallpaperService = services.NewWallpaperService(settingsService, wallpaper.NewProvider(""), store.WallpaperCache())
	}
	return nil
}

// syncTransport builds the WebDAV transport when sync is configured,
// nil otherwise. Remote commands then report the missing configuration
// themselves.
func syncTransport() driven.BackupTransport {
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("Could not read sync settings: %v", err)
		return nil
	}
	transport, err := webdav.NewTransport(settings.WebDAV)
	if err != nil {
		if !errors.Is(err, domain.ErrSyncNotConfigured) {
			logger.Warn("Sync target unusable: %v", err)
		}
		return nil
	}
	return transport
}

// teardown flushes pending writes and closes the store. Injected
// services without a store behind them are left running; their owner
// closes them.
func teardown(ctx context.Context) error {
	if store == nil {
		return nil
	}
	if gridService != nil {
		if err := gridService.Flush(ctx); err != nil {
			logger.Warn("Flushing pending writes: %v", err)
		}
		_ = gridService.Close()
	}
	if store != nil {
		return store.Close()
	}
	return nil
}
