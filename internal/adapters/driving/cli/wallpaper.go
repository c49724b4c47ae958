package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

var wallpaperOut string

var wallpaperCmd = &cobra.Command{
	Use:   "wallpaper",
	Short: "Manage the rotating background",
}

var wallpaperShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current wallpaper",
	Long: `Print the current wallpaper's attribution, fetching one first if
the cache is empty. With --out the image bytes are written to a
file.`,
	RunE: runWallpaperShow,
}

var wallpaperRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate to the next wallpaper",
	RunE:  runWallpaperRotate,
}

func init() {
	wallpaperShowCmd.Flags().StringVarP(&wallpaperOut, "out", "o", "", "write the image to a file")

	wallpaperCmd.AddCommand(wallpaperShowCmd)
	wallpaperCmd.AddCommand(wallpaperRotateCmd)
	rootCmd.AddCommand(wallpaperCmd)
}

func wallpaperError(err error) error {
	if errors.Is(err, domain.ErrWallpaperDisabled) {
		return errors.New("wallpapers are disabled; run 'tabdeck settings wallpaper' first")
	}
	return err
}

func runWallpaperShow(cmd *cobra.Command, _ []string) error {
	if wallpaperService == nil {
		return errors.New("wallpaper service not configured")
	}

	current, err := wallpaperService.Current(cmd.Context())
	if err != nil {
		return wallpaperError(err)
	}

	printWallpaper(cmd, current)
	if wallpaperOut != "" {
		if err := os.WriteFile(wallpaperOut, current.Image, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", wallpaperOut, err)
		}
		cmd.Printf("Image written to %s\n", wallpaperOut)
	}
	return nil
}

func runWallpaperRotate(cmd *cobra.Command, _ []string) error {
	if wallpaperService == nil {
		return errors.New("wallpaper service not configured")
	}

	rotated, err := wallpaperService.Rotate(cmd.Context())
	if err != nil {
		return wallpaperError(err)
	}

	cmd.Println("Rotated wallpaper")
	printWallpaper(cmd, rotated)
	return nil
}

func printWallpaper(cmd *cobra.Command, w *domain.CachedWallpaper) {
	cmd.Printf("Wallpaper %s (%d bytes)\n", w.Info.ID, len(w.Image))
	if w.Info.Author != "" {
		cmd.Printf("  By %s\n", w.Info.Author)
	}
	if w.Info.URL != "" {
		cmd.Printf("  %s\n", w.Info.URL)
	}
}
