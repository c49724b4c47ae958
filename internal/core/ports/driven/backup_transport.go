package driven

import (
	"context"
	"time"
)

// RemoteBackup describes one backup document on the remote server.
type RemoteBackup struct {
	// Name is the file name under the backup directory.
	Name string

	// Size is the document size in bytes.
	Size int64

	// ModifiedAt is the server-side modification time.
	ModifiedAt time.Time
}

// BackupTransport moves backup documents to and from a remote server.
// Implemented over WebDAV; the core only sees named blobs.
type BackupTransport interface {
	// Test verifies the server is reachable with the configured
	// credentials.
	Test(ctx context.Context) error

	// Upload stores a backup document under name.
	Upload(ctx context.Context, name string, data []byte) error

	// Download retrieves a backup document by name.
	Download(ctx context.Context, name string) ([]byte, error)

	// List returns the remote backups, newest first.
	List(ctx context.Context) ([]RemoteBackup, error)

	// Delete removes a remote backup.
	Delete(ctx context.Context, name string) error
}
