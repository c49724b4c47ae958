package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	moveTo    string
	moveIndex int
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Operate on grid items by id",
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete items from the grid",
	Long: `Delete one or more items. Deleting a folder promotes its sites
back to the root grid; they are never deleted with it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runItemDelete,
}

var itemMoveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Move an item to a folder or back to the root",
	Long: `Move an item. With --to the item goes into that folder; without
it the item returns to the root grid. --index picks the position
within the target, appending when omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runItemMove,
}

var itemReorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Reorder the root grid or a folder",
	Long: `Replace the order of one scope wholesale. The ids must be exactly
the current members of the scope: the root grid, or the folder
named with --to.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runItemReorder,
}

func init() {
	itemMoveCmd.Flags().StringVar(&moveTo, "to", "", "target folder id (omit for the root grid)")
	itemMoveCmd.Flags().IntVar(&moveIndex, "index", -1, "target position (append when omitted)")
	itemReorderCmd.Flags().StringVar(&moveTo, "to", "", "folder id to reorder (omit for the root grid)")

	itemCmd.AddCommand(itemDeleteCmd)
	itemCmd.AddCommand(itemMoveCmd)
	itemCmd.AddCommand(itemReorderCmd)
	rootCmd.AddCommand(itemCmd)
}

func runItemDelete(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	if err := gridService.DeleteItems(cmd.Context(), args); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}

	cmd.Printf("Deleted %d item(s)\n", len(args))
	return nil
}

func runItemMove(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	if err := gridService.MoveItem(cmd.Context(), args[0], moveTo, moveIndex); err != nil {
		return fmt.Errorf("failed to move item: %w", err)
	}

	if moveTo == "" {
		cmd.Printf("Moved %s to the root grid\n", args[0])
	} else {
		cmd.Printf("Moved %s into %s\n", args[0], moveTo)
	}
	return nil
}

func runItemReorder(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	if err := gridService.Reorder(cmd.Context(), args, moveTo); err != nil {
		return fmt.Errorf("failed to reorder: %w", err)
	}

	cmd.Println("Reordered")
	return nil
}
