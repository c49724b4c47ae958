package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the grid interactively",
	Long:  `Open an interactive terminal browser for the dashboard grid.`,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	if gridService == nil || settingsService == nil {
		return errors.New("services not configured")
	}

	app, err := tui.NewApp(tui.NewPorts(gridService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to start tui: %w", err)
	}
	return app.Run()
}
