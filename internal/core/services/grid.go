package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driven"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
	"github.com/tabdeck/tabdeck-cli/internal/logger"
)

// Ensure GridService implements the interface.
var _ driving.GridService = (*GridService)(nil)

// indexKey is the KVStore key holding the serialized grid index.
const indexKey = "grid-index"

// defaultReorderDebounce batches the index persists of live
// drag-reorder feedback down to the settled state.
const defaultReorderDebounce = 400 * time.Millisecond

// GridService is the mutation API over the dashboard grid. It owns the
// working item set, the order/hierarchy index and the derived
// projection. Every mutation validates first, applies in memory
// synchronously, then persists through a single FIFO write queue so
// durable writes land in call order.
type GridService struct {
	itemStore driven.ItemStore
	kvStore   driven.KVStore

	mu         sync.Mutex
	items      map[string]domain.Item
	index      *domain.Index
	projection *domain.Projection
	loaded     bool

	queue           *writeQueue
	reorderDebounce time.Duration
	pendingIndex    *time.Timer

	subscribers []func()

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

// NewGridService creates a new grid service.
func NewGridService(itemStore driven.ItemStore, kvStore driven.KVStore) *GridService {
	return &GridService{
		itemStore:       itemStore,
		kvStore:         kvStore,
		items:           make(map[string]domain.Item),
		index:           domain.NewIndex(),
		projection:      domain.NewProjection(),
		queue:           newWriteQueue(),
		reorderDebounce: defaultReorderDebounce,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
}

// SetReorderDebounce overrides how long reorder persists are held back.
// Zero persists every reorder immediately.
func (s *GridService) SetReorderDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reorderDebounce = d
}

// Subscribe registers a callback invoked after every applied mutation.
// Consumers re-read the projection inside the callback.
func (s *GridService) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Load reads all records and the index, repairs any inconsistency, and
// builds the projection.
func (s *GridService) Load(ctx context.Context) error {
	items, err := s.itemStore.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]domain.Item, len(items))
	for _, it := range items {
		s.items[it.Meta().ID] = it
	}

	s.index = s.loadIndex(ctx)
	if s.index.Normalize(s.items) {
		logger.Info("Grid index repaired on load")
		s.persistIndexLocked()
	}
	if changed := s.deriveParentsLocked(); len(changed) > 0 {
		logger.Debug("Realigned parent references on %d records", len(changed))
		s.persistItemsLocked(changed)
	}
	s.refreshLocked()
	s.loaded = true
	return nil
}

// loadIndex reads the persisted index; a missing or damaged value
// degrades to an empty index, which Normalize then rebuilds from the
// records. This is the designed recovery path, not an error.
func (s *GridService) loadIndex(ctx context.Context) *domain.Index {
	raw, err := s.kvStore.Get(ctx, indexKey)
	if err != nil {
		logger.Debug("No stored grid index: %v", err)
		return domain.NewIndex()
	}
	idx := domain.NewIndex()
	if err := json.Unmarshal([]byte(raw), idx); err != nil {
		logger.Warn("Stored grid index unreadable, rebuilding: %v", err)
		return domain.NewIndex()
	}
	return idx
}

// Projection returns the current render-ready view.
func (s *GridService) Projection() *domain.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projection
}

// AddSite creates a site at the end of its scope and returns its id.
func (s *GridService) AddSite(_ context.Context, site driving.NewSite) (string, error) {
	if site.URL == "" {
		return "", fmt.Errorf("%w: site url is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if site.ParentID != "" {
		parent, ok := s.items[site.ParentID]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrParentNotFound, site.ParentID)
		}
		if parent.Type() != domain.ItemTypeFolder {
			return "", fmt.Errorf("%w: %s", domain.ErrNotAFolder, site.ParentID)
		}
	}

	now := s.now()
	item := &domain.Site{
		ItemMeta: domain.ItemMeta{
			ID:        s.newID(),
			Title:     site.Title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		URL:     site.URL,
		Favicon: site.Favicon,
	}

	s.flushPendingIndexLocked()
	if site.ParentID != "" {
		pid := site.ParentID
		item.ParentID = &pid
		if err := s.index.InsertChild(site.ParentID, item.ID, -1); err != nil {
			return "", err
		}
	} else if err := s.index.InsertRoot(item.ID, -1); err != nil {
		return "", err
	}

	s.items[item.ID] = item
	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{item})
	s.persistIndexLocked()
	s.notifyLocked()
	return item.ID, nil
}

// AddFolder creates a folder at the end of the root and returns its id.
func (s *GridService) AddFolder(_ context.Context, folder driving.NewFolder) (string, error) {
	if folder.Title == "" {
		return "", fmt.Errorf("%w: folder title is required", domain.ErrInvalidInput)
	}
	size := folder.Size
	if size == (domain.FolderSize{}) {
		size = domain.FolderSizeVertical
	}
	if !size.IsValid() {
		return "", fmt.Errorf("%w: unsupported folder size %s", domain.ErrInvalidInput, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	item := &domain.Folder{
		ItemMeta: domain.ItemMeta{
			ID:        s.newID(),
			Title:     folder.Title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Size: size,
	}

	s.flushPendingIndexLocked()
	if err := s.index.InsertRoot(item.ID, -1); err != nil {
		return "", err
	}

	s.items[item.ID] = item
	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{item})
	s.persistIndexLocked()
	s.notifyLocked()
	return item.ID, nil
}

// UpdateItem applies a partial update to one item's own fields.
func (s *GridService) UpdateItem(_ context.Context, id string, update driving.ItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	switch v := item.(type) {
	case *domain.Site:
		if update.Title != nil {
			v.Title = *update.Title
		}
		if update.URL != nil {
			v.URL = *update.URL
		}
		if update.Favicon != nil {
			v.Favicon = *update.Favicon
		}
	case *domain.Folder:
		if update.URL != nil || update.Favicon != nil {
			return fmt.Errorf("%w: folders have no url or favicon", domain.ErrInvalidInput)
		}
		if update.Title != nil {
			v.Title = *update.Title
		}
	}
	item.Meta().UpdatedAt = s.now()

	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{item})
	s.notifyLocked()
	return nil
}

// DeleteItems removes a batch of items. Each id is processed once,
// independent of iteration order; deleting a folder promotes its
// children to root rather than cascading, and the index is persisted
// once for the whole batch.
func (s *GridService) DeleteItems(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	// Children of doomed folders that are not themselves doomed get
	// promoted and keep their records.
	promoted := make(map[string]bool)
	for id := range doomed {
		if s.items[id].Type() != domain.ItemTypeFolder {
			continue
		}
		for _, childID := range s.index.ChildrenOf(id) {
			if !doomed[childID] {
				promoted[childID] = true
			}
		}
	}

	s.flushPendingIndexLocked()
	deleted := make([]string, 0, len(doomed))
	for id := range doomed {
		s.index.Remove(id)
		delete(s.items, id)
		deleted = append(deleted, id)
	}

	now := s.now()
	var survivors []domain.Item
	for childID := range promoted {
		if site, ok := s.items[childID].(*domain.Site); ok {
			site.ParentID = nil
			site.UpdatedAt = now
			survivors = append(survivors, site)
		}
	}

	s.refreshLocked()
	s.persistDeletesLocked(deleted)
	if len(survivors) > 0 {
		s.persistItemsLocked(survivors)
	}
	s.persistIndexLocked()
	s.notifyLocked()
	return nil
}

// MoveItem relocates one item to a parent ("" for root) at the given
// position.
func (s *GridService) MoveItem(_ context.Context, id, targetParentID string, targetIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if targetParentID != "" {
		target, ok := s.items[targetParentID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrParentNotFound, targetParentID)
		}
		if target.Type() != domain.ItemTypeFolder {
			return fmt.Errorf("%w: %s", domain.ErrNotAFolder, targetParentID)
		}
		if item.Type() == domain.ItemTypeFolder {
			return fmt.Errorf("%w: %s", domain.ErrFolderNesting, id)
		}
	}

	s.flushPendingIndexLocked()
	if err := s.index.Move(id, targetParentID, targetIndex); err != nil {
		return err
	}

	if site, ok := item.(*domain.Site); ok {
		if targetParentID == "" {
			site.ParentID = nil
		} else {
			pid := targetParentID
			site.ParentID = &pid
		}
	}
	item.Meta().UpdatedAt = s.now()

	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{item})
	s.persistIndexLocked()
	s.notifyLocked()
	return nil
}

// MoveToFolder moves a batch of sites into a folder ("" for root).
// Folders among ids and the target itself are skipped, not errors; the
// rest of the batch still moves.
func (s *GridService) MoveToFolder(_ context.Context, ids []string, targetFolderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if targetFolderID != "" {
		target, ok := s.items[targetFolderID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrParentNotFound, targetFolderID)
		}
		if target.Type() != domain.ItemTypeFolder {
			return fmt.Errorf("%w: %s", domain.ErrNotAFolder, targetFolderID)
		}
	}

	s.flushPendingIndexLocked()
	now := s.now()
	var moved []domain.Item
	for _, id := range ids {
		if id == targetFolderID {
			continue
		}
		site, ok := s.items[id].(*domain.Site)
		if !ok {
			// Missing ids and folders are skipped silently.
			continue
		}
		if err := s.index.Move(id, targetFolderID, -1); err != nil {
			logger.Warn("Skipping move of %s: %v", id, err)
			continue
		}
		if targetFolderID == "" {
			site.ParentID = nil
		} else {
			pid := targetFolderID
			site.ParentID = &pid
		}
		site.UpdatedAt = now
		moved = append(moved, site)
	}

	if len(moved) == 0 {
		return nil
	}
	s.refreshLocked()
	s.persistItemsLocked(moved)
	s.persistIndexLocked()
	s.notifyLocked()
	return nil
}

// Reorder replaces the order of one scope wholesale. The in-memory
// state is immediate; the index persist is debounced to the settled
// state of a drag.
func (s *GridService) Reorder(_ context.Context, newOrder []string, scopeParentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scopeParentID != "" {
		scope, ok := s.items[scopeParentID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrParentNotFound, scopeParentID)
		}
		if scope.Type() != domain.ItemTypeFolder {
			return fmt.Errorf("%w: %s", domain.ErrNotAFolder, scopeParentID)
		}
	}

	if err := s.index.Reorder(scopeParentID, newOrder); err != nil {
		return err
	}

	s.refreshLocked()
	s.schedulePersistIndexLocked()
	s.notifyLocked()
	return nil
}

// UpdateFolderSize changes a folder's grid footprint. The index is
// untouched; only the record changes.
func (s *GridService) UpdateFolderSize(_ context.Context, id string, size domain.FolderSize) error {
	if !size.IsValid() {
		return fmt.Errorf("%w: unsupported folder size %s", domain.ErrInvalidInput, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	folder, ok := item.(*domain.Folder)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotAFolder, id)
	}

	folder.Size = size
	if folder.Position != nil {
		folder.Position.W = size.W
		folder.Position.H = size.H
	}
	folder.UpdatedAt = s.now()

	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{folder})
	s.notifyLocked()
	return nil
}

// UpdatePosition records one item's absolute grid placement.
func (s *GridService) UpdatePosition(_ context.Context, id string, pos domain.GridPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	p := pos
	item.Meta().Position = &p
	item.Meta().UpdatedAt = s.now()

	s.refreshLocked()
	s.persistItemsLocked([]domain.Item{item})
	s.notifyLocked()
	return nil
}

// BulkUpdatePositions records settled drag positions with one persist.
func (s *GridService) BulkUpdatePositions(_ context.Context, updates []driving.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var changed []domain.Item
	for _, u := range updates {
		item, ok := s.items[u.ID]
		if !ok {
			continue
		}
		p := u.Position
		item.Meta().Position = &p
		item.Meta().UpdatedAt = now
		changed = append(changed, item)
	}
	if len(changed) == 0 {
		return nil
	}

	s.refreshLocked()
	s.persistItemsLocked(changed)
	s.notifyLocked()
	return nil
}

// MigrateToGridLayout assigns positions from root order to items
// lacking one, wrapping at colCount columns.
func (s *GridService) MigrateToGridLayout(_ context.Context, colCount int) (bool, error) {
	if colCount <= 0 {
		return false, fmt.Errorf("%w: column count must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	x, y, rowH := 0, 0, 1
	var changed []domain.Item
	for _, item := range s.projection.Roots() {
		w, h := 1, 1
		if folder, ok := domain.AsFolder(item); ok {
			w, h = folder.Size.W, folder.Size.H
		}
		if item.Meta().Position != nil {
			continue
		}
		if x+w > colCount {
			// Advance past the tallest item in the finished row.
			x = 0
			y += rowH
			rowH = 1
		}
		if h > rowH {
			rowH = h
		}
		item.Meta().Position = &domain.GridPosition{X: x, Y: y, W: w, H: h}
		item.Meta().UpdatedAt = s.now()
		x += w
		changed = append(changed, item)
	}

	if len(changed) == 0 {
		return false, nil
	}
	s.refreshLocked()
	s.persistItemsLocked(changed)
	s.notifyLocked()
	return true, nil
}

// replaceAll swaps in a fully validated item set and index, as a
// restore does, and rewrites storage wholesale. The clear must land
// before the new records, so both go through the queue in order.
func (s *GridService) replaceAll(ctx context.Context, items map[string]domain.Item, index *domain.Index) error {
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("flushing pending writes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = items
	s.index = index
	s.refreshLocked()

	s.queue.Enqueue(func() {
		if err := s.itemStore.Clear(context.Background()); err != nil {
			logger.Warn("Failed to clear item store: %v", err)
		}
	})
	all := make([]domain.Item, 0, len(items))
	for _, it := range items {
		all = append(all, it)
	}
	s.persistItemsLocked(all)
	s.persistIndexLocked()
	s.notifyLocked()
	return nil
}

// Flush drains pending persistence, including a held-back reorder
// persist. Called on teardown.
func (s *GridService) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.flushPendingIndexLocked()
	s.mu.Unlock()
	return s.queue.Flush(ctx)
}

// Close flushes and stops the write queue.
func (s *GridService) Close() error {
	s.mu.Lock()
	s.flushPendingIndexLocked()
	s.mu.Unlock()
	s.queue.Close()
	return nil
}

// ---- internals, all called with s.mu held ----

// refreshLocked rederives the projection from the working set + index.
func (s *GridService) refreshLocked() {
	items := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	if dropped := s.projection.Rebuild(items, s.index); len(dropped) > 0 {
		logger.Warn("Projection dropped %d dangling ids: %v", len(dropped), dropped)
	}
}

// deriveParentsLocked realigns every site's ParentID with index
// membership, the canonical source. Returns the changed records.
func (s *GridService) deriveParentsLocked() []domain.Item {
	var changed []domain.Item
	for id, it := range s.items {
		site, ok := it.(*domain.Site)
		if !ok {
			continue
		}
		parent, _ := s.index.ParentOf(id)
		switch {
		case parent == "" && site.ParentID != nil:
			site.ParentID = nil
			changed = append(changed, site)
		case parent != "" && (site.ParentID == nil || *site.ParentID != parent):
			pid := parent
			site.ParentID = &pid
			changed = append(changed, site)
		}
	}
	return changed
}

// persistIndexLocked snapshots the index now and enqueues the durable
// write, so later mutations cannot leak into this write's snapshot.
func (s *GridService) persistIndexLocked() {
	data, err := json.Marshal(s.index)
	if err != nil {
		logger.Warn("Failed to serialize grid index: %v", err)
		return
	}
	s.queue.Enqueue(func() {
		if err := s.kvStore.Set(context.Background(), indexKey, string(data)); err != nil {
			logger.Warn("Failed to persist grid index: %v", err)
		}
	})
}

// schedulePersistIndexLocked defers the index persist by the reorder
// debounce window, coalescing a burst of reorders into one write.
func (s *GridService) schedulePersistIndexLocked() {
	if s.reorderDebounce <= 0 {
		s.persistIndexLocked()
		return
	}
	if s.pendingIndex != nil {
		s.pendingIndex.Stop()
	}
	s.pendingIndex = time.AfterFunc(s.reorderDebounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pendingIndex == nil {
			return
		}
		s.pendingIndex = nil
		s.persistIndexLocked()
	})
}

// flushPendingIndexLocked promotes a held-back reorder persist to the
// queue immediately. Every conflicting mutation calls this first so
// persisted writes stay in call order.
func (s *GridService) flushPendingIndexLocked() {
	if s.pendingIndex == nil {
		return
	}
	s.pendingIndex.Stop()
	s.pendingIndex = nil
	s.persistIndexLocked()
}

func (s *GridService) persistItemsLocked(items []domain.Item) {
	snapshot := make([]domain.Item, 0, len(items))
	for _, it := range items {
		snapshot = append(snapshot, cloneItem(it))
	}
	s.queue.Enqueue(func() {
		if err := s.itemStore.BulkPut(context.Background(), snapshot); err != nil {
			logger.Warn("Failed to persist %d items: %v", len(snapshot), err)
		}
	})
}

func (s *GridService) persistDeletesLocked(ids []string) {
	snapshot := append([]string(nil), ids...)
	s.queue.Enqueue(func() {
		if err := s.itemStore.BulkDelete(context.Background(), snapshot); err != nil {
			logger.Warn("Failed to delete %d items: %v", len(snapshot), err)
		}
	})
}

func (s *GridService) notifyLocked() {
	for _, fn := range s.subscribers {
		fn()
	}
}

// cloneItem deep-copies an item so queued writes see the state at
// mutation time, not whatever later mutations did to it.
func cloneItem(it domain.Item) domain.Item {
	switch v := it.(type) {
	case *domain.Site:
		c := *v
		if v.Position != nil {
			pos := *v.Position
			c.Position = &pos
		}
		if v.ParentID != nil {
			pid := *v.ParentID
			c.ParentID = &pid
		}
		return &c
	case *domain.Folder:
		c := *v
		if v.Position != nil {
			pos := *v.Position
			c.Position = &pos
		}
		return &c
	default:
		return it
	}
}
