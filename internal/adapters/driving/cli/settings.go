package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

var (
	wallpaperEnabled  bool
	wallpaperInterval int
	wallpaperCategory string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the dashboard: search bar, wallpaper rotation
and the WebDAV sync target.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSearchBarCmd = &cobra.Command{
	Use:   "search-bar <on|off>",
	Short: "Toggle the dashboard search bar",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSearchBar,
}

var settingsWallpaperCmd = &cobra.Command{
	Use:   "wallpaper",
	Short: "Configure wallpaper rotation",
	RunE:  runSettingsWallpaper,
}

var settingsWebdavCmd = &cobra.Command{
	Use:   "webdav <url>",
	Short: "Configure the WebDAV sync target",
	Long: `Set the backup sync server. The username is prompted for, and the
password is read without echo and stored encrypted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsWebdav,
}

var settingsWebdavOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable sync",
	RunE:  runSettingsWebdavOff,
}

func init() {
	settingsWallpaperCmd.Flags().BoolVar(&wallpaperEnabled, "enabled", true, "enable wallpaper rotation")
	settingsWallpaperCmd.Flags().IntVar(&wallpaperInterval, "interval", 30, "rotation interval in minutes")
	settingsWallpaperCmd.Flags().StringVar(&wallpaperCategory, "category", "nature", "image category")

	settingsWebdavCmd.AddCommand(settingsWebdavOffCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSearchBarCmd)
	settingsCmd.AddCommand(settingsWallpaperCmd)
	settingsCmd.AddCommand(settingsWebdavCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Dashboard]")
	cmd.Printf("  Search bar: %s\n", onOff(settings.ShowSearchBar))
	cmd.Println()

	cmd.Println("[Wallpaper]")
	cmd.Printf("  Enabled: %s\n", onOff(settings.Wallpaper.Enabled))
	if settings.Wallpaper.Enabled {
		cmd.Printf("  Interval: %d minutes\n", settings.Wallpaper.IntervalMinutes)
		cmd.Printf("  Category: %s\n", settings.Wallpaper.Category)
	}
	cmd.Println()

	cmd.Println("[Sync]")
	if settings.WebDAV.Configured() {
		cmd.Printf("  Server: %s\n", settings.WebDAV.URL)
		cmd.Printf("  Username: %s\n", settings.WebDAV.Username)
		cmd.Printf("  Password: %s\n", maskPassword(settings.WebDAV.Password))
	} else {
		cmd.Println("  Not configured")
	}
	return nil
}

func runSettingsSearchBar(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var show bool
	switch strings.ToLower(args[0]) {
	case "on":
		show = true
	case "off":
		show = false
	default:
		return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
	}

	if err := settingsService.SetSearchBar(show); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	cmd.Printf("Search bar %s\n", onOff(show))
	return nil
}

func runSettingsWallpaper(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	err := settingsService.SetWallpaper(domain.WallpaperSettings{
		Enabled:         wallpaperEnabled,
		IntervalMinutes: wallpaperInterval,
		Category:        wallpaperCategory,
	})
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	cmd.Printf("Wallpaper rotation %s\n", onOff(wallpaperEnabled))
	return nil
}

func runSettingsWebdav(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	cmd.Print("Username: ")
	username := readLine(reader)

	password, err := readPassword(cmd, reader)
	if err != nil {
		return err
	}

	err = settingsService.SetWebDAV(domain.WebDAVSettings{
		Enabled:  true,
		URL:      args[0],
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	cmd.Printf("Sync target set to %s\n", args[0])
	return nil
}

func runSettingsWebdavOff(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cfg := settings.WebDAV
	cfg.Enabled = false
	if err := settingsService.SetWebDAV(cfg); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	cmd.Println("Sync disabled")
	return nil
}

// readPassword reads without echo when stdin is a terminal, falling
// back to a plain line read otherwise (pipes, tests).
func readPassword(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	cmd.Print("Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	return readLine(reader), nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// maskPassword hides a stored password, keeping just enough to confirm
// one is set.
func maskPassword(password string) string {
	if password == "" {
		return "(not set)"
	}
	return "********"
}
