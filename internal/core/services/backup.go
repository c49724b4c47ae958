package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
	"github.com/tabdeck/tabdeck-cli/internal/logger"
)

// Ensure BackupService implements the interface.
var _ driving.BackupService = (*BackupService)(nil)

// remoteBackupKeep is how many remote backups Push leaves behind.
const remoteBackupKeep = 10

// backupNameFormat is the timestamp layout of pushed backup names.
const backupNameFormat = "tabdeck-backup-20060102-150405.json"

// BackupService exports and imports the portable backup document and
// syncs it over the configured transport.
type BackupService struct {
	grid      *GridService
	transport driven.BackupTransport

	// Overridable for tests.
	now func() time.Time
}

// NewBackupService creates a new backup service. The transport may be
// nil when no sync target is configured; remote operations then return
// domain.ErrSyncNotConfigured.
func NewBackupService(grid *GridService, transport driven.BackupTransport) *BackupService {
	return &BackupService{
		grid:      grid,
		transport: transport,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export serializes every item record plus the index.
func (s *BackupService) Export(ctx context.Context) ([]byte, error) {
	if err := s.grid.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flushing pending writes: %w", err)
	}

	s.grid.mu.Lock()
	items := make([]domain.Item, 0, len(s.grid.items))
	for _, id := range orderedIDs(s.grid.index) {
		if it, ok := s.grid.items[id]; ok {
			items = append(items, cloneItem(it))
		}
	}
	index := s.grid.index.Clone()
	s.grid.mu.Unlock()

	backup := &domain.Backup{Items: items, Index: index}
	data, err := backup.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("serializing backup: %w", err)
	}
	return data, nil
}

// Import validates a backup document and replaces the store contents
// with it. Validation failure rejects the whole document; the current
// state is untouched.
func (s *BackupService) Import(ctx context.Context, data []byte) error {
	backup, err := domain.DecodeBackup(data)
	if err != nil {
		return err
	}

	items := make(map[string]domain.Item, len(backup.Items))
	for _, it := range backup.Items {
		items[it.Meta().ID] = it
	}
	index := backup.Index
	if index == nil {
		index = domain.NewIndex()
	}
	if index.Normalize(items) {
		logger.Info("Imported index repaired during restore")
	}

	return s.grid.replaceAll(ctx, items, index)
}

// Push exports and uploads a timestamped backup, then prunes old
// remote backups beyond the keep limit.
func (s *BackupService) Push(ctx context.Context) (string, error) {
	if s.transport == nil {
		return "", domain.ErrSyncNotConfigured
	}
	data, err := s.Export(ctx)
	if err != nil {
		return "", err
	}

	name := s.now().Format(backupNameFormat)
	if err := s.transport.Upload(ctx, name, data); err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}

	if err := s.pruneRemote(ctx); err != nil {
		// The upload succeeded; a failed prune is not fatal.
		logger.Warn("Failed to prune old remote backups: %v", err)
	}
	return name, nil
}

// Pull downloads the named remote backup, or the newest when name is
// empty, and imports it.
func (s *BackupService) Pull(ctx context.Context, name string) error {
	if s.transport == nil {
		return domain.ErrSyncNotConfigured
	}
	if name == "" {
		backups, err := s.ListRemote(ctx)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return fmt.Errorf("%w: no remote backups", domain.ErrNotFound)
		}
		name = backups[0].Name
	}

	data, err := s.transport.Download(ctx, name)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	if err := s.Import(ctx, data); err != nil {
		return fmt.Errorf("restoring %s: %w", name, err)
	}
	logger.Info("Restored backup %s", name)
	return nil
}

// ListRemote returns the remote backups, newest first.
func (s *BackupService) ListRemote(ctx context.Context) ([]driven.RemoteBackup, error) {
	if s.transport == nil {
		return nil, domain.ErrSyncNotConfigured
	}
	backups, err := s.transport.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing remote backups: %w", err)
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModifiedAt.After(backups[j].ModifiedAt)
	})
	return backups, nil
}

// TestConnection verifies the configured server is reachable.
func (s *BackupService) TestConnection(ctx context.Context) error {
	if s.transport == nil {
		return domain.ErrSyncNotConfigured
	}
	return s.transport.Test(ctx)
}

func (s *BackupService) pruneRemote(ctx context.Context) error {
	backups, err := s.ListRemote(ctx)
	if err != nil {
		return err
	}
	for _, old := range backups[min(remoteBackupKeep, len(backups)):] {
		if err := s.transport.Delete(ctx, old.Name); err != nil {
			return fmt.Errorf("deleting %s: %w", old.Name, err)
		}
		logger.Debug("Pruned remote backup %s", old.Name)
	}
	return nil
}

// orderedIDs flattens the index depth-first so exports list items in
// display order.
func orderedIDs(index *domain.Index) []string {
	var ids []string
	for _, e := range index.Entries() {
		ids = append(ids, e.ID)
		ids = append(ids, e.Children...)
	}
	return ids
}
