package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemType discriminates the two kinds of grid item.
type ItemType string

// Grid item kinds.
const (
	// ItemTypeSite is a bookmarked website.
	ItemTypeSite ItemType = "site"

	// ItemTypeFolder is a container of sites.
	ItemTypeFolder ItemType = "folder"
)

// IsValid returns true if the item type is recognised.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeSite, ItemTypeFolder:
		return true
	default:
		return false
	}
}

// GridPosition is an absolute placement on the dashboard grid,
// in grid cells. Positions are optional; items without one are
// laid out by root order.
type GridPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FolderSize is a folder's footprint on the grid, in cells.
type FolderSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// The supported folder footprints.
var (
	FolderSizeVertical   = FolderSize{W: 1, H: 2}
	FolderSizeHorizontal = FolderSize{W: 2, H: 1}
	FolderSizeSquare     = FolderSize{W: 2, H: 2}
)

// IsValid returns true if the size is one of the supported footprints.
func (s FolderSize) IsValid() bool {
	switch s {
	case FolderSizeVertical, FolderSizeHorizontal, FolderSizeSquare:
		return true
	default:
		return false
	}
}

// String returns the "WxH" form, e.g. "2x1".
func (s FolderSize) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// ParseFolderSize parses the "WxH" string form. It also accepts the
// legacy named forms found in old backups ("vertical", "horizontal",
// "square"). Unknown input falls back to the vertical default, which
// matches how old records were migrated.
func ParseFolderSize(s string) FolderSize {
	switch s {
	case "2x2", "square":
		return FolderSizeSquare
	case "2x1", "horizontal":
		return FolderSizeHorizontal
	case "1x2", "vertical":
		return FolderSizeVertical
	default:
		return FolderSizeVertical
	}
}

// ItemMeta holds the fields common to every grid item.
type ItemMeta struct {
	// ID is the opaque unique identifier.
	ID string

	// Title is the human-readable label shown on the grid.
	Title string

	// Position is the optional absolute grid placement.
	Position *GridPosition

	// CreatedAt is when the item was created.
	CreatedAt time.Time

	// UpdatedAt is when the item was last modified.
	UpdatedAt time.Time
}

// Item is a grid item: either a *Site or a *Folder. Consumers switch
// exhaustively on the concrete type (or on Type()); adding a third kind
// is a compile-visible change in every switch.
type Item interface {
	// Type returns the item kind discriminator.
	Type() ItemType

	// Meta returns the shared metadata fields.
	Meta() *ItemMeta
}

// Site is a bookmarked website. A site has at most one containing
// folder and cannot contain other items.
type Site struct {
	ItemMeta

	// URL is the bookmarked address.
	URL string

	// Favicon is an icon URL or a base64 payload.
	Favicon string

	// ParentID is the containing folder id, or nil at root level.
	// The index is the canonical source of membership; this field is a
	// persisted derivation used to rebuild the index after data loss.
	ParentID *string
}

// Type returns ItemTypeSite.
func (s *Site) Type() ItemType { return ItemTypeSite }

// Meta returns the shared metadata fields.
func (s *Site) Meta() *ItemMeta { return &s.ItemMeta }

// Folder is a container of sites. Folders are never nested and never
// embed their children; membership lives in the index.
type Folder struct {
	ItemMeta

	// Size is the grid footprint.
	Size FolderSize
}

// Type returns ItemTypeFolder.
func (f *Folder) Type() ItemType { return ItemTypeFolder }

// Meta returns the shared metadata fields.
func (f *Folder) Meta() *ItemMeta { return &f.ItemMeta }

// AsSite returns the concrete site, or false for any other kind.
func AsSite(it Item) (*Site, bool) {
	s, ok := it.(*Site)
	return s, ok
}

// AsFolder returns the concrete folder, or false for any other kind.
func AsFolder(it Item) (*Folder, bool) {
	f, ok := it.(*Folder)
	return f, ok
}

// itemJSON is the wire shape for a single item record in backups.
// Timestamps are Unix milliseconds, matching the records written by
// earlier versions of the product.
type itemJSON struct {
	Type      ItemType        `json:"type"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Position  *GridPosition   `json:"position,omitempty"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
	URL       string          `json:"url,omitempty"`
	Favicon   string          `json:"icon,omitempty"`
	ParentID  *string         `json:"pid,omitempty"`
	Size      json.RawMessage `json:"size,omitempty"`
}

// MarshalItem encodes an item as a tagged JSON record.
func MarshalItem(it Item) ([]byte, error) {
	m := it.Meta()
	rec := itemJSON{
		Type:      it.Type(),
		ID:        m.ID,
		Title:     m.Title,
		Position:  m.Position,
		CreatedAt: m.CreatedAt.UnixMilli(),
		UpdatedAt: m.UpdatedAt.UnixMilli(),
	}
	switch v := it.(type) {
	case *Site:
		rec.URL = v.URL
		rec.Favicon = v.Favicon
		rec.ParentID = v.ParentID
	case *Folder:
		size, err := json.Marshal(v.Size)
		if err != nil {
			return nil, fmt.Errorf("marshalling folder size: %w", err)
		}
		rec.Size = size
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, it.Type())
	}
	return json.Marshal(rec)
}

// UnmarshalItem decodes a tagged JSON record into a Site or Folder.
// It validates the fields required for each kind and migrates legacy
// folder sizes stored as strings.
func UnmarshalItem(data []byte) (Item, error) {
	var rec itemJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: item missing id", ErrSchemaMismatch)
	}

	meta := ItemMeta{
		ID:        rec.ID,
		Title:     rec.Title,
		Position:  rec.Position,
		CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(rec.UpdatedAt).UTC(),
	}

	switch rec.Type {
	case ItemTypeSite:
		if rec.URL == "" {
			return nil, fmt.Errorf("%w: site %s missing url", ErrSchemaMismatch, rec.ID)
		}
		return &Site{
			ItemMeta: meta,
			URL:      rec.URL,
			Favicon:  rec.Favicon,
			ParentID: rec.ParentID,
		}, nil
	case ItemTypeFolder:
		size, err := decodeFolderSize(rec.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: folder %s: %v", ErrSchemaMismatch, rec.ID, err)
		}
		return &Folder{ItemMeta: meta, Size: size}, nil
	default:
		return nil, fmt.Errorf("%w: unknown item type %q", ErrSchemaMismatch, rec.Type)
	}
}

// decodeFolderSize accepts the current {w,h} object form and the legacy
// string form ("1x2", "vertical", ...).
func decodeFolderSize(raw json.RawMessage) (FolderSize, error) {
	if len(raw) == 0 {
		return FolderSizeVertical, nil
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return ParseFolderSize(legacy), nil
	}

	var size FolderSize
	if err := json.Unmarshal(raw, &size); err != nil {
		return FolderSize{}, fmt.Errorf("invalid size %s", raw)
	}
	if !size.IsValid() {
		return FolderSize{}, fmt.Errorf("unsupported size %s", size)
	}
	return size, nil
}
