package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync backups with the configured WebDAV server",
	Long: `Push and pull grid backups to a WebDAV server. Configure the
server first with 'tabdeck settings webdav'.`,
}

var syncTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the server connection",
	RunE:  runSyncTest,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a new backup",
	RunE:  runSyncPush,
}

var syncPullCmd = &cobra.Command{
	Use:   "pull [name]",
	Short: "Restore from a remote backup",
	Long: `Download a remote backup and replace the local grid with it.
Without a name the newest remote backup is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSyncPull,
}

var syncListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote backups",
	RunE:  runSyncList,
}

func init() {
	syncCmd.AddCommand(syncTestCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncListCmd)
	rootCmd.AddCommand(syncCmd)
}

// syncError turns the unconfigured sentinel into a hint.
func syncError(err error) error {
	if errors.Is(err, domain.ErrSyncNotConfigured) {
		return errors.New("sync is not configured; run 'tabdeck settings webdav' first")
	}
	return err
}

func runSyncTest(cmd *cobra.Command, _ []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	if err := backupService.TestConnection(cmd.Context()); err != nil {
		return syncError(fmt.Errorf("connection failed: %w", err))
	}
	cmd.Println("Connection OK")
	return nil
}

func runSyncPush(cmd *cobra.Command, _ []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	name, err := backupService.Push(cmd.Context())
	if err != nil {
		return syncError(fmt.Errorf("push failed: %w", err))
	}
	cmd.Printf("Pushed %s\n", name)
	return nil
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if err := backupService.Pull(cmd.Context(), name); err != nil {
		return syncError(fmt.Errorf("pull failed: %w", err))
	}
	cmd.Println("Grid restored from remote backup")
	return nil
}

func runSyncList(cmd *cobra.Command, _ []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	backups, err := backupService.ListRemote(cmd.Context())
	if err != nil {
		return syncError(fmt.Errorf("list failed: %w", err))
	}
	if len(backups) == 0 {
		cmd.Println("No remote backups")
		return nil
	}
	for _, b := range backups {
		cmd.Printf("%s  %6d bytes  %s\n", b.Name, b.Size, b.ModifiedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
