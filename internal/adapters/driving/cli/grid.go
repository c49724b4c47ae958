package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

var layoutColumns int

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Inspect the dashboard grid",
}

var gridShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the grid as a tree",
	RunE:  runGridShow,
}

var gridLayoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Assign grid positions to unpositioned items",
	Long: `Walk the root grid in order and give every item without a stored
position one, wrapping at the column count. Items that already
have a position keep it.`,
	RunE: runGridLayout,
}

func init() {
	gridLayoutCmd.Flags().IntVar(&layoutColumns, "columns", 6, "grid column count")

	gridCmd.AddCommand(gridShowCmd)
	gridCmd.AddCommand(gridLayoutCmd)
	rootCmd.AddCommand(gridCmd)
}

func runGridShow(cmd *cobra.Command, _ []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	p := gridService.Projection()
	if p.Len() == 0 {
		cmd.Println("The grid is empty.")
		return nil
	}

	cmd.Print(renderGrid(p))
	return nil
}

func runGridLayout(cmd *cobra.Command, _ []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	changed, err := gridService.MigrateToGridLayout(cmd.Context(), layoutColumns)
	if err != nil {
		return fmt.Errorf("failed to assign positions: %w", err)
	}

	if changed {
		cmd.Println("Assigned positions to unpositioned items")
	} else {
		cmd.Println("Every item already has a position")
	}
	return nil
}

// renderGrid formats the projection as an indented tree.
func renderGrid(p *domain.Projection) string {
	var b strings.Builder
	for _, item := range p.Roots() {
		switch v := item.(type) {
		case *domain.Folder:
			fmt.Fprintf(&b, "%s/ (%s, %s)%s\n", v.Title, v.ID, v.Size, formatPosition(v.Position))
			for _, site := range p.ChildrenOf(v.ID) {
				fmt.Fprintf(&b, "  %s (%s) %s\n", site.Title, site.ID, site.URL)
			}
		case *domain.Site:
			fmt.Fprintf(&b, "%s (%s) %s%s\n", v.Title, v.ID, v.URL, formatPosition(v.Position))
		}
	}
	return b.String()
}

func formatPosition(pos *domain.GridPosition) string {
	if pos == nil {
		return ""
	}
	return fmt.Sprintf(" @%d,%d", pos.X, pos.Y)
}
