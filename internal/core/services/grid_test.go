package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabdeck/tabdeck-cli/internal/adapters/driven/storage/memory"
	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
)

type gridFixture struct {
	svc   *GridService
	items *memory.ItemStore
	kv    *memory.KVStore
}

func newGridFixture(t *testing.T) *gridFixture {
	t.Helper()
	f := &gridFixture{
		items: memory.NewItemStore(),
		kv:    memory.NewKVStore(),
	}
	f.svc = NewGridService(f.items, f.kv)
	f.svc.SetReorderDebounce(0)

	var idSeq int
	f.svc.newID = func() string {
		idSeq++
		return fmt.Sprintf("id-%d", idSeq)
	}
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	require.NoError(t, f.svc.Load(context.Background()))
	t.Cleanup(func() { _ = f.svc.Close() })
	return f
}

// settle drains async persistence so the backing stores can be
// inspected.
func (f *gridFixture) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.Flush(context.Background()))
}

func (f *gridFixture) rootIDs() []string {
	var ids []string
	for _, it := range f.svc.Projection().Roots() {
		ids = append(ids, it.Meta().ID)
	}
	return ids
}

func (f *gridFixture) childIDs(folderID string) []string {
	var ids []string
	for _, s := range f.svc.Projection().ChildrenOf(folderID) {
		ids = append(ids, s.ID)
	}
	return ids
}

// seedFolderScenario builds a reference state: root order
// [A(folder, children=[S1,S2]), B(site)].
func seedFolderScenario(t *testing.T, f *gridFixture) (folderA, s1, s2, b string) {
	t.Helper()
	ctx := context.Background()

	folderA, err := f.svc.AddFolder(ctx, driving.NewFolder{Title: "A"})
	require.NoError(t, err)
	s1, err = f.svc.AddSite(ctx, driving.NewSite{Title: "S1", URL: "https://s1", ParentID: folderA})
	require.NoError(t, err)
	s2, err = f.svc.AddSite(ctx, driving.NewSite{Title: "S2", URL: "https://s2", ParentID: folderA})
	require.NoError(t, err)
	b, err = f.svc.AddSite(ctx, driving.NewSite{Title: "B", URL: "https://b"})
	require.NoError(t, err)
	return folderA, s1, s2, b
}

func TestGridService_AddSite_Root(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddSite(ctx, driving.NewSite{Title: "Example", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, f.rootIDs())

	f.settle(t)
	stored, ok := f.items.Get(id)
	require.True(t, ok)
	site, ok := domain.AsSite(stored)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", site.URL)
	assert.Nil(t, site.ParentID)

	raw, err := f.kv.Get(ctx, indexKey)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`[[%q,[]]]`, id), raw)
}

func TestGridService_AddSite_IntoFolder(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()

	folder, err := f.svc.AddFolder(ctx, driving.NewFolder{Title: "Work"})
	require.NoError(t, err)
	id, err := f.svc.AddSite(ctx, driving.NewSite{Title: "Mail", URL: "https://mail", ParentID: folder})
	require.NoError(t, err)

	assert.Equal(t, []string{folder}, f.rootIDs())
	assert.Equal(t, []string{id}, f.childIDs(folder))

	f.settle(t)
	stored, _ := f.items.Get(id)
	site, _ := domain.AsSite(stored)
	require.NotNil(t, site.ParentID)
	assert.Equal(t, folder, *site.ParentID)
}

func TestGridService_AddSite_Validation(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddSite(ctx, driving.NewSite{Title: "no url"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.AddSite(ctx, driving.NewSite{Title: "x", URL: "https://x", ParentID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	siteID, err := f.svc.AddSite(ctx, driving.NewSite{Title: "x", URL: "https://x"})
	require.NoError(t, err)
	_, err = f.svc.AddSite(ctx, driving.NewSite{Title: "y", URL: "https://y", ParentID: siteID})
	assert.ErrorIs(t, err, domain.ErrNotAFolder)

	// Rejected mutations leave no trace.
	assert.Equal(t, []string{siteID}, f.rootIDs())
}

func TestGridService_AddFolder_DefaultSize(t *testing.T) {
	f := newGridFixture(t)

	id, err := f.svc.AddFolder(context.Background(), driving.NewFolder{Title: "Stuff"})
	require.NoError(t, err)

	item, ok := f.svc.Projection().Get(id)
	require.True(t, ok)
	folder, ok := domain.AsFolder(item)
	require.True(t, ok)
	assert.Equal(t, domain.FolderSizeVertical, folder.Size)
}

func TestGridService_MoveToFolder_SpecScenario(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.MoveToFolder(ctx, []string{b}, folderA))

	assert.Equal(t, []string{s1, s2, b}, f.childIDs(folderA))
	assert.Equal(t, []string{folderA}, f.rootIDs())
}

func TestGridService_DeleteItems_PromotesChildren(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)
	require.NoError(t, f.svc.MoveToFolder(ctx, []string{b}, folderA))

	require.NoError(t, f.svc.DeleteItems(ctx, []string{folderA}))

	// Children are promoted to root, never cascaded.
	assert.ElementsMatch(t, []string{s1, s2, b}, f.rootIDs())
	_, ok := f.svc.Projection().Get(folderA)
	assert.False(t, ok)

	f.settle(t)
	assert.Equal(t, 3, f.items.Len())
	for _, id := range []string{s1, s2, b} {
		stored, ok := f.items.Get(id)
		require.True(t, ok, "record %s must survive", id)
		site, _ := domain.AsSite(stored)
		assert.Nil(t, site.ParentID, "promoted child %s must have no parent", id)
	}
}

func TestGridService_DeleteItems_FolderAndChildTogether(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, _ := seedFolderScenario(t, f)

	// S1 is doomed along with its folder; only S2 is promoted.
	require.NoError(t, f.svc.DeleteItems(ctx, []string{folderA, s1}))

	assert.NotContains(t, f.rootIDs(), s1)
	assert.Contains(t, f.rootIDs(), s2)

	f.settle(t)
	_, ok := f.items.Get(s1)
	assert.False(t, ok)
	_, ok = f.items.Get(s2)
	assert.True(t, ok)
}

func TestGridService_DeleteItems_UnknownIDsIgnored(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	_, _, _, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.DeleteItems(ctx, []string{"ghost"}))
	assert.Contains(t, f.rootIDs(), b)
}

func TestGridService_MoveToFolder_SkipsFoldersAndSelf(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	otherFolder, err := f.svc.AddFolder(ctx, driving.NewFolder{Title: "Other"})
	require.NoError(t, err)

	// A batch containing the target itself and another folder: both
	// skipped, the site still moves.
	require.NoError(t, f.svc.MoveToFolder(ctx, []string{folderA, otherFolder, b}, folderA))

	assert.Equal(t, []string{s1, s2, b}, f.childIDs(folderA))
	assert.Equal(t, []string{folderA, otherFolder}, f.rootIDs())
}

func TestGridService_MoveToFolder_TargetNotAFolder(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	_, _, _, b := seedFolderScenario(t, f)

	site, err := f.svc.AddSite(ctx, driving.NewSite{Title: "t", URL: "https://t"})
	require.NoError(t, err)

	err = f.svc.MoveToFolder(ctx, []string{b}, site)
	assert.ErrorIs(t, err, domain.ErrNotAFolder)
}

func TestGridService_MoveToFolder_BackToRoot(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, _, _ := seedFolderScenario(t, f)

	require.NoError(t, f.svc.MoveToFolder(ctx, []string{s1}, ""))

	assert.Contains(t, f.rootIDs(), s1)
	assert.NotContains(t, f.childIDs(folderA), s1)

	f.settle(t)
	stored, _ := f.items.Get(s1)
	site, _ := domain.AsSite(stored)
	assert.Nil(t, site.ParentID)
}

func TestGridService_MoveItem_FolderIntoFolderRejected(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	otherFolder, err := f.svc.AddFolder(ctx, driving.NewFolder{Title: "Other"})
	require.NoError(t, err)

	err = f.svc.MoveItem(ctx, otherFolder, folderA, -1)
	assert.ErrorIs(t, err, domain.ErrFolderNesting)

	// State untouched by the rejected move.
	assert.Equal(t, []string{folderA, b, otherFolder}, f.rootIDs())
	assert.Equal(t, []string{s1, s2}, f.childIDs(folderA))
}

func TestGridService_MoveItem_ToPosition(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.MoveItem(ctx, b, folderA, 0))
	assert.Equal(t, []string{b, s1, s2}, f.childIDs(folderA))

	require.NoError(t, f.svc.MoveItem(ctx, s2, "", 0))
	assert.Equal(t, []string{s2, folderA}, f.rootIDs())
}

func TestGridService_Reorder_FolderScope(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.Reorder(ctx, []string{s2, s1}, folderA))

	assert.Equal(t, []string{s2, s1}, f.childIDs(folderA))
	// Root order unchanged.
	assert.Equal(t, []string{folderA, b}, f.rootIDs())
}

func TestGridService_Reorder_RejectsForeignIDs(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, _, b := seedFolderScenario(t, f)

	err := f.svc.Reorder(ctx, []string{s1, b}, folderA)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGridService_Reorder_DebouncesPersist(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)
	f.settle(t)
	baseline := f.kv.SetCount

	// Hold persists back far longer than the test runs.
	f.svc.SetReorderDebounce(time.Hour)

	require.NoError(t, f.svc.Reorder(ctx, []string{b, folderA}, ""))
	require.NoError(t, f.svc.Reorder(ctx, []string{folderA, b}, ""))
	require.NoError(t, f.svc.Reorder(ctx, []string{b, folderA}, ""))
	require.NoError(t, f.svc.Flush(ctx))

	// Three live reorders coalesced into one durable write.
	assert.Equal(t, baseline+1, f.kv.SetCount)

	raw, err := f.kv.Get(ctx, indexKey)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`[[%q,[]],[%q,[%q,%q]]]`, b, folderA, s1, s2), raw)
}

func TestGridService_Reorder_PendingPersistFlushedByNextMutation(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, _, _, b := seedFolderScenario(t, f)
	f.settle(t)
	baseline := f.kv.SetCount

	f.svc.SetReorderDebounce(time.Hour)
	require.NoError(t, f.svc.Reorder(ctx, []string{b, folderA}, ""))

	// A conflicting mutation forces the held-back write out first.
	_, err := f.svc.AddSite(ctx, driving.NewSite{Title: "c", URL: "https://c"})
	require.NoError(t, err)
	f.settle(t)

	// One write for the flushed reorder, one for the add.
	assert.Equal(t, baseline+2, f.kv.SetCount)
}

func TestGridService_UpdateFolderSize(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, s1, s2, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.UpdatePosition(ctx, folderA, domain.GridPosition{X: 0, Y: 0, W: 1, H: 2}))
	require.NoError(t, f.svc.UpdateFolderSize(ctx, folderA, domain.FolderSizeSquare))

	item, _ := f.svc.Projection().Get(folderA)
	folder, _ := domain.AsFolder(item)
	assert.Equal(t, domain.FolderSizeSquare, folder.Size)
	// The stored position tracks the footprint.
	require.NotNil(t, folder.Position)
	assert.Equal(t, 2, folder.Position.W)
	assert.Equal(t, 2, folder.Position.H)

	// The index is untouched by a resize.
	assert.Equal(t, []string{folderA, b}, f.rootIDs())
	assert.Equal(t, []string{s1, s2}, f.childIDs(folderA))
}

func TestGridService_UpdateFolderSize_Validation(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	_, s1, _, _ := seedFolderScenario(t, f)

	err := f.svc.UpdateFolderSize(ctx, s1, domain.FolderSizeSquare)
	assert.ErrorIs(t, err, domain.ErrNotAFolder)

	err = f.svc.UpdateFolderSize(ctx, "ghost", domain.FolderSizeSquare)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGridService_UpdateItem(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	_, s1, _, _ := seedFolderScenario(t, f)

	title := "Renamed"
	url := "https://renamed"
	require.NoError(t, f.svc.UpdateItem(ctx, s1, driving.ItemUpdate{Title: &title, URL: &url}))

	item, _ := f.svc.Projection().Get(s1)
	site, _ := domain.AsSite(item)
	assert.Equal(t, "Renamed", site.Title)
	assert.Equal(t, "https://renamed", site.URL)
}

func TestGridService_UpdateItem_URLOnFolderRejected(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, _, _, _ := seedFolderScenario(t, f)

	url := "https://nope"
	err := f.svc.UpdateItem(ctx, folderA, driving.ItemUpdate{URL: &url})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGridService_MigrateToGridLayout(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, _, _, b := seedFolderScenario(t, f)

	changed, err := f.svc.MigrateToGridLayout(ctx, 2)
	require.NoError(t, err)
	assert.True(t, changed)

	item, _ := f.svc.Projection().Get(folderA)
	require.NotNil(t, item.Meta().Position)
	assert.Equal(t, domain.GridPosition{X: 0, Y: 0, W: 1, H: 2}, *item.Meta().Position)

	item, _ = f.svc.Projection().Get(b)
	require.NotNil(t, item.Meta().Position)
	assert.Equal(t, domain.GridPosition{X: 1, Y: 0, W: 1, H: 1}, *item.Meta().Position)

	// Second run finds nothing to do.
	changed, err = f.svc.MigrateToGridLayout(ctx, 2)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGridService_MigrateToGridLayoutTallRowDoesNotOverlap(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()

	big, err := f.svc.AddFolder(ctx, driving.NewFolder{Title: "Big", Size: domain.FolderSize{W: 2, H: 2}})
	require.NoError(t, err)
	s1, err := f.svc.AddSite(ctx, driving.NewSite{Title: "S1", URL: "https://s1"})
	require.NoError(t, err)
	s2, err := f.svc.AddSite(ctx, driving.NewSite{Title: "S2", URL: "https://s2"})
	require.NoError(t, err)

	changed, err := f.svc.MigrateToGridLayout(ctx, 2)
	require.NoError(t, err)
	assert.True(t, changed)

	item, _ := f.svc.Projection().Get(big)
	assert.Equal(t, domain.GridPosition{X: 0, Y: 0, W: 2, H: 2}, *item.Meta().Position)

	// The next row starts below the 2-high folder, not inside it.
	item, _ = f.svc.Projection().Get(s1)
	assert.Equal(t, domain.GridPosition{X: 0, Y: 2, W: 1, H: 1}, *item.Meta().Position)
	item, _ = f.svc.Projection().Get(s2)
	assert.Equal(t, domain.GridPosition{X: 1, Y: 2, W: 1, H: 1}, *item.Meta().Position)
}

func TestGridService_BulkUpdatePositions(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, _, _, b := seedFolderScenario(t, f)

	require.NoError(t, f.svc.BulkUpdatePositions(ctx, []driving.PositionUpdate{
		{ID: folderA, Position: domain.GridPosition{X: 3, Y: 0, W: 1, H: 2}},
		{ID: b, Position: domain.GridPosition{X: 0, Y: 0, W: 1, H: 1}},
		{ID: "ghost", Position: domain.GridPosition{}},
	}))

	item, _ := f.svc.Projection().Get(folderA)
	assert.Equal(t, 3, item.Meta().Position.X)
}

func TestGridService_StorageFailureKeepsMemoryState(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()

	f.items.FailWrites = true
	f.kv.FailWrites = true

	id, err := f.svc.AddSite(ctx, driving.NewSite{Title: "x", URL: "https://x"})
	require.NoError(t, err, "persistence failure must not fail the mutation")
	f.settle(t)

	// In-memory state is the working truth; nothing rolled back.
	assert.Equal(t, []string{id}, f.rootIDs())
	assert.Equal(t, 0, f.items.Len())
}

func TestGridService_Load_RebuildsMissingIndex(t *testing.T) {
	items := memory.NewItemStore()
	kv := memory.NewKVStore()
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	folderID := "folder-1"
	require.NoError(t, items.Put(ctx, &domain.Folder{
		ItemMeta: domain.ItemMeta{ID: folderID, Title: "F", CreatedAt: base, UpdatedAt: base},
		Size:     domain.FolderSizeVertical,
	}))
	require.NoError(t, items.Put(ctx, &domain.Site{
		ItemMeta: domain.ItemMeta{ID: "site-1", Title: "S", CreatedAt: base.Add(time.Minute), UpdatedAt: base},
		URL:      "https://s",
		ParentID: &folderID,
	}))
	require.NoError(t, items.Put(ctx, &domain.Site{
		ItemMeta: domain.ItemMeta{ID: "site-2", Title: "R", CreatedAt: base.Add(2 * time.Minute), UpdatedAt: base},
		URL:      "https://r",
	}))

	svc := NewGridService(items, kv)
	require.NoError(t, svc.Load(ctx))
	defer svc.Close()

	p := svc.Projection()
	roots := p.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, folderID, roots[0].Meta().ID)
	assert.Equal(t, "site-2", roots[1].Meta().ID)
	require.Len(t, p.ChildrenOf(folderID), 1)

	// The repaired index was persisted.
	require.NoError(t, svc.Flush(ctx))
	raw, err := kv.Get(ctx, indexKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[["folder-1",["site-1"]],["site-2",[]]]`, raw)
}

func TestGridService_Load_CorruptIndexDegradesToRebuild(t *testing.T) {
	items := memory.NewItemStore()
	kv := memory.NewKVStore()
	ctx := context.Background()

	require.NoError(t, items.Put(ctx, &domain.Site{
		ItemMeta: domain.ItemMeta{ID: "s1", Title: "S", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		URL:      "https://s",
	}))
	require.NoError(t, kv.Set(ctx, indexKey, `{"definitely":"not an index"}`))

	svc := NewGridService(items, kv)
	require.NoError(t, svc.Load(ctx))
	defer svc.Close()

	require.Len(t, svc.Projection().Roots(), 1)
}

func TestGridService_Load_RealignsStaleParentIDs(t *testing.T) {
	items := memory.NewItemStore()
	kv := memory.NewKVStore()
	ctx := context.Background()

	// Record claims a parent, but the index says root: the index wins.
	stale := "folder-ghost"
	require.NoError(t, items.Put(ctx, &domain.Site{
		ItemMeta: domain.ItemMeta{ID: "s1", Title: "S", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		URL:      "https://s",
		ParentID: &stale,
	}))
	require.NoError(t, kv.Set(ctx, indexKey, `[["s1",[]]]`))

	svc := NewGridService(items, kv)
	require.NoError(t, svc.Load(ctx))
	defer svc.Close()
	require.NoError(t, svc.Flush(ctx))

	stored, ok := items.Get("s1")
	require.True(t, ok)
	site, _ := domain.AsSite(stored)
	assert.Nil(t, site.ParentID)
}

func TestGridService_Subscribe_NotifiedOnMutation(t *testing.T) {
	f := newGridFixture(t)

	var calls int
	f.svc.Subscribe(func() { calls++ })

	_, err := f.svc.AddSite(context.Background(), driving.NewSite{Title: "x", URL: "https://x"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// A rejected mutation never notifies.
	_, err = f.svc.AddSite(context.Background(), driving.NewSite{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGridService_PersistedWritesStayInCallOrder(t *testing.T) {
	f := newGridFixture(t)
	ctx := context.Background()
	folderA, _, _, b := seedFolderScenario(t, f)

	// A burst of conflicting mutations on the root scope; the last
	// in-memory state must be the last durable state.
	require.NoError(t, f.svc.Reorder(ctx, []string{b, folderA}, ""))
	require.NoError(t, f.svc.MoveToFolder(ctx, []string{b}, folderA))
	require.NoError(t, f.svc.DeleteItems(ctx, []string{b}))
	f.settle(t)

	raw, err := f.kv.Get(ctx, indexKey)
	require.NoError(t, err)

	var idx domain.Index
	require.NoError(t, idx.UnmarshalJSON([]byte(raw)))
	assert.Equal(t, f.rootIDs(), idx.RootIDs())
	assert.Equal(t, f.childIDs(folderA), idx.ChildrenOf(folderA))
}
