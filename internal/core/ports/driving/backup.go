package driving

import (
	"context"

	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// BackupService exports and imports the portable backup document and
// syncs it with the configured remote server.
type BackupService interface {
	// Export serializes every item record plus the index.
	Export(ctx context.Context) ([]byte, error)

	// Import validates a backup document and replaces the store
	// contents with it. A document failing schema validation is
	// rejected wholesale; nothing is applied.
	Import(ctx context.Context, data []byte) error

	// Push exports and uploads a timestamped backup, pruning old
	// remote backups beyond the keep limit. Returns the remote name.
	Push(ctx context.Context) (string, error)

	// Pull downloads the named remote backup (or the newest when name
	// is empty) and imports it.
	Pull(ctx context.Context, name string) error

	// ListRemote returns the remote backups, newest first.
	ListRemote(ctx context.Context) ([]driven.RemoteBackup, error)

	// TestConnection verifies the configured server is reachable.
	TestConnection(ctx context.Context) error
}
