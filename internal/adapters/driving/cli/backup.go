package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import grid backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the grid to a backup file",
	Long: `Write the full grid, every item plus its order, as a JSON
document. With no file argument the document goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the grid from a backup file",
	Long: `Replace the whole grid with the backup's contents. A document
that fails validation is rejected without touching anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupImport,
}

func init() {
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	data, err := backupService.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if len(args) == 0 {
		cmd.Println(string(data))
		return nil
	}
	if err := os.WriteFile(args[0], data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	cmd.Printf("Exported grid to %s\n", args[0])
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if err := backupService.Import(cmd.Context(), data); err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	cmd.Printf("Restored grid from %s\n", args[0])
	return nil
}
