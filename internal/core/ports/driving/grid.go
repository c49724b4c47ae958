package driving

import (
	"context"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
)

// NewSite carries the caller-supplied fields for a new site. The id,
// timestamps and index placement are assigned by the service.
type NewSite struct {
	Title    string
	URL      string
	Favicon  string
	ParentID string // containing folder id, or "" for root
}

// NewFolder carries the caller-supplied fields for a new folder.
type NewFolder struct {
	Title string
	Size  domain.FolderSize // zero value selects the default footprint
}

// ItemUpdate is a partial update of a grid item's own fields. Nil
// pointers leave the field untouched. Placement is not updated here;
// use Move/Reorder for that.
type ItemUpdate struct {
	Title   *string
	URL     *string
	Favicon *string
}

// PositionUpdate pairs an item id with a new grid placement.
type PositionUpdate struct {
	ID       string
	Position domain.GridPosition
}

// GridService is the mutation API for the dashboard grid. One call per
// user-visible action. Each call validates against current state,
// applies to the in-memory index and projection synchronously, then
// persists asynchronously in call order; a rejected call changes
// nothing.
type GridService interface {
	// Load reads all records and the index, repairs any inconsistency,
	// and builds the projection. Must be called before mutations.
	Load(ctx context.Context) error

	// Projection returns the current render-ready view.
	Projection() *domain.Projection

	// AddSite creates a site at the end of its scope and returns its id.
	AddSite(ctx context.Context, site NewSite) (string, error)

	// AddFolder creates a folder at the end of the root and returns its id.
	AddFolder(ctx context.Context, folder NewFolder) (string, error)

	// UpdateItem applies a partial update to one item's fields.
	UpdateItem(ctx context.Context, id string, update ItemUpdate) error

	// DeleteItems removes a batch of items. Folders among ids have
	// their children promoted to root; records of promoted children are
	// kept with the parent reference cleared.
	DeleteItems(ctx context.Context, ids []string) error

	// MoveItem relocates one item to a parent ("" for root) at the
	// given position (negative appends).
	MoveItem(ctx context.Context, id, targetParentID string, targetIndex int) error

	// MoveToFolder moves a batch of sites into a folder ("" for root).
	// Ids that are folders or equal the target are skipped silently;
	// the rest of the batch still moves.
	MoveToFolder(ctx context.Context, ids []string, targetFolderID string) error

	// Reorder replaces the order of one scope ("" for root) wholesale.
	// Persistence of reorders is debounced; the in-memory state is
	// always immediate.
	Reorder(ctx context.Context, newOrder []string, scopeParentID string) error

	// UpdateFolderSize changes a folder's grid footprint.
	UpdateFolderSize(ctx context.Context, id string, size domain.FolderSize) error

	// UpdatePosition records one item's absolute grid placement.
	UpdatePosition(ctx context.Context, id string, pos domain.GridPosition) error

	// BulkUpdatePositions records settled drag positions for many items
	// with a single persist.
	BulkUpdatePositions(ctx context.Context, updates []PositionUpdate) error

	// MigrateToGridLayout assigns positions from root order to items
	// lacking one, wrapping at colCount columns. Returns true if any
	// item changed.
	MigrateToGridLayout(ctx context.Context, colCount int) (bool, error)

	// Flush drains pending persistence. Called on teardown.
	Flush(ctx context.Context) error
}
