package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
)

// fakeTransport is an in-memory BackupTransport.
type fakeTransport struct {
	files    map[string][]byte
	modified map[string]time.Time
	testErr  error
	clock    time.Time
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		files:    make(map[string][]byte),
		modified: make(map[string]time.Time),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeTransport) Test(context.Context) error { return f.testErr }

func (f *fakeTransport) Upload(_ context.Context, name string, data []byte) error {
	f.clock = f.clock.Add(time.Minute)
	f.files[name] = append([]byte(nil), data...)
	f.modified[name] = f.clock
	return nil
}

func (f *fakeTransport) Download(_ context.Context, name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return data, nil
}

func (f *fakeTransport) List(context.Context) ([]driven.RemoteBackup, error) {
	var out []driven.RemoteBackup
	for name, data := range f.files {
		out = append(out, driven.RemoteBackup{
			Name:       name,
			Size:       int64(len(data)),
			ModifiedAt: f.modified[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ModifiedAt.After(out[j].ModifiedAt)
	})
	return out, nil
}

func (f *fakeTransport) Delete(_ context.Context, name string) error {
	delete(f.files, name)
	delete(f.modified, name)
	return nil
}

func newBackupFixture(t *testing.T) (*BackupService, *gridFixture, *fakeTransport) {
	t.Helper()
	grid := newGridFixture(t)
	transport := newFakeTransport()
	svc := NewBackupService(grid.svc, transport)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return svc, grid, transport
}

func TestBackupService_ExportImportRoundTrip(t *testing.T) {
	svc, grid, _ := newBackupFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, grid)

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	// Mutate, then restore: the pre-export state must come back.
	require.NoError(t, grid.svc.DeleteItems(ctx, []string{folderA, b}))
	require.NoError(t, svc.Import(ctx, data))

	assert.Equal(t, []string{folderA, b}, grid.rootIDs())
	assert.Equal(t, []string{s1, s2}, grid.childIDs(folderA))

	// The restore is durable.
	grid.settle(t)
	assert.Equal(t, 4, grid.items.Len())
}

func TestBackupService_ExportShape(t *testing.T) {
	svc, grid, _ := newBackupFixture(t)
	ctx := context.Background()
	seedFolderScenario(t, grid)

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "version")
	assert.Contains(t, doc, "gridItems")
	assert.Contains(t, doc, "gridIndex")

	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(doc["gridItems"], &items))
	assert.Len(t, items, 4)
}

func TestBackupService_ImportRejectsBadDocumentWholesale(t *testing.T) {
	svc, grid, _ := newBackupFixture(t)
	ctx := context.Background()
	folderA, _, _, _ := seedFolderScenario(t, grid)

	err := svc.Import(ctx, []byte(`{"version":99,"gridItems":[]}`))
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	// Nothing was applied.
	assert.Contains(t, grid.rootIDs(), folderA)
}

func TestBackupService_ImportRepairsMissingIndex(t *testing.T) {
	svc, grid, _ := newBackupFixture(t)
	ctx := context.Background()

	// A document with records but no index is rebuilt on restore.
	doc := `{"version":1,"gridItems":[
		{"type":"site","id":"s1","title":"S","url":"https://s","createdAt":1700000000000,"updatedAt":1700000000000}
	]}`
	require.NoError(t, svc.Import(ctx, []byte(doc)))

	assert.Equal(t, []string{"s1"}, grid.rootIDs())
}

func TestBackupService_PushUploadsAndPrunes(t *testing.T) {
	svc, grid, transport := newBackupFixture(t)
	ctx := context.Background()
	seedFolderScenario(t, grid)

	// Preexisting remote backups past the keep limit.
	for i := 0; i < remoteBackupKeep+3; i++ {
		require.NoError(t, transport.Upload(ctx, fmt.Sprintf("old-%02d.json", i), []byte("{}")))
	}

	name, err := svc.Push(ctx)
	require.NoError(t, err)
	assert.Contains(t, transport.files, name)
	assert.Len(t, transport.files, remoteBackupKeep)

	// The push itself survives the prune.
	for i := 0; i < 4; i++ {
		assert.NotContains(t, transport.files, fmt.Sprintf("old-%02d.json", i))
	}
}

func TestBackupService_PullNewest(t *testing.T) {
	svc, grid, transport := newBackupFixture(t)
	ctx := context.Background()
	_, _, _, b := seedFolderScenario(t, grid)

	name, err := svc.Push(ctx)
	require.NoError(t, err)

	// An older, different remote document must not win.
	older := `{"version":1,"gridItems":[]}`
	transport.files["stale.json"] = []byte(older)
	transport.modified["stale.json"] = transport.modified[name].Add(-time.Hour)

	require.NoError(t, grid.svc.DeleteItems(ctx, []string{b}))
	require.NoError(t, svc.Pull(ctx, ""))

	assert.Contains(t, grid.rootIDs(), b)
}

// unsortedTransport returns its listing oldest first, the reverse of
// what the port documents. Pull must not depend on the order.
type unsortedTransport struct {
	*fakeTransport
}

func (u *unsortedTransport) List(ctx context.Context) ([]driven.RemoteBackup, error) {
	out, err := u.fakeTransport.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ModifiedAt.Before(out[j].ModifiedAt)
	})
	return out, nil
}

func TestBackupService_PullNewestFromUnsortedTransport(t *testing.T) {
	grid := newGridFixture(t)
	transport := &unsortedTransport{fakeTransport: newFakeTransport()}
	svc := NewBackupService(grid.svc, transport)
	ctx := context.Background()
	_, _, _, b := seedFolderScenario(t, grid)

	data, err := svc.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, transport.Upload(ctx, "newest.json", data))

	stale := `{"version":1,"gridItems":[]}`
	transport.files["stale.json"] = []byte(stale)
	transport.modified["stale.json"] = transport.modified["newest.json"].Add(-time.Hour)

	require.NoError(t, grid.svc.DeleteItems(ctx, []string{b}))
	require.NoError(t, svc.Pull(ctx, ""))

	assert.Contains(t, grid.rootIDs(), b)
}

func TestBackupService_PullByName(t *testing.T) {
	svc, grid, transport := newBackupFixture(t)
	ctx := context.Background()

	empty := `{"version":1,"gridItems":[]}`
	transport.files["empty.json"] = []byte(empty)
	transport.modified["empty.json"] = time.Now()

	seedFolderScenario(t, grid)
	require.NoError(t, svc.Pull(ctx, "empty.json"))
	assert.Empty(t, grid.rootIDs())
}

func TestBackupService_PullNoRemoteBackups(t *testing.T) {
	svc, _, _ := newBackupFixture(t)

	err := svc.Pull(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackupService_RemoteOpsWithoutTransport(t *testing.T) {
	grid := newGridFixture(t)
	svc := NewBackupService(grid.svc, nil)
	ctx := context.Background()

	_, err := svc.Push(ctx)
	assert.ErrorIs(t, err, domain.ErrSyncNotConfigured)
	assert.ErrorIs(t, svc.Pull(ctx, ""), domain.ErrSyncNotConfigured)
	_, err = svc.ListRemote(ctx)
	assert.ErrorIs(t, err, domain.ErrSyncNotConfigured)
	assert.ErrorIs(t, svc.TestConnection(ctx), domain.ErrSyncNotConfigured)

	// Local export and import still work without a sync target.
	data, err := svc.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Import(ctx, data))
}

func TestBackupService_ListRemoteNewestFirst(t *testing.T) {
	svc, _, transport := newBackupFixture(t)
	ctx := context.Background()

	require.NoError(t, transport.Upload(ctx, "first.json", []byte("{}")))
	require.NoError(t, transport.Upload(ctx, "second.json", []byte("{}")))

	backups, err := svc.ListRemote(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "second.json", backups[0].Name)
	assert.Equal(t, "first.json", backups[1].Name)
}
