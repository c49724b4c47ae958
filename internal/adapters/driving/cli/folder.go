package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
)

var folderSize string

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage dashboard folders",
}

var folderAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a folder to the grid",
	Long: `Add a folder to the end of the root grid. Folders hold sites;
they cannot be nested.

Sizes: 1x2 (vertical), 2x1 (horizontal), 2x2 (square).`,
	Args: cobra.ExactArgs(1),
	RunE: runFolderAdd,
}

var folderResizeCmd = &cobra.Command{
	Use:   "resize <id> <size>",
	Short: "Change a folder's grid footprint",
	Args:  cobra.ExactArgs(2),
	RunE:  runFolderResize,
}

func init() {
	folderAddCmd.Flags().StringVarP(&folderSize, "size", "s", "1x2", "folder size (1x2, 2x1 or 2x2)")

	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderResizeCmd)
	rootCmd.AddCommand(folderCmd)
}

func runFolderAdd(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	id, err := gridService.AddFolder(cmd.Context(), driving.NewFolder{
		Title: args[0],
		Size:  domain.ParseFolderSize(folderSize),
	})
	if err != nil {
		return fmt.Errorf("failed to add folder: %w", err)
	}

	cmd.Printf("Added folder %s (%s)\n", args[0], id)
	return nil
}

func runFolderResize(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	size := domain.ParseFolderSize(args[1])
	if err := gridService.UpdateFolderSize(cmd.Context(), args[0], size); err != nil {
		return fmt.Errorf("failed to resize folder: %w", err)
	}

	cmd.Printf("Resized folder %s to %s\n", args[0], size)
	return nil
}
