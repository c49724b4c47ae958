package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// IndexEntry is one top-level slot of the index: an item id plus the
// ordered child ids when the item is a folder. Sites always carry an
// empty child list.
type IndexEntry struct {
	ID       string
	Children []string
}

// Index is the single source of truth for root-level display order and
// folder membership. It is persisted separately from item records so
// the record schema carries no authoritative order field.
//
// Structural invariants, maintained by every operation:
//
//   - an id appears at most once across the whole index, either as a
//     top-level entry or inside exactly one entry's child list
//   - only top-level entries exist; children never have children
//
// Operations either fully apply or leave the index untouched. The index
// is type-agnostic: whether an id refers to a folder is decided by the
// caller from item metadata, except where structure alone proves a
// violation (moving an entry that has children into another entry).
type Index struct {
	entries []IndexEntry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Len returns the number of top-level entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Entries returns a deep copy of the top-level entries in display order.
func (x *Index) Entries() []IndexEntry {
	out := make([]IndexEntry, len(x.entries))
	for i, e := range x.entries {
		out[i] = IndexEntry{ID: e.ID, Children: append([]string(nil), e.Children...)}
	}
	return out
}

// RootIDs returns the top-level ids in display order.
func (x *Index) RootIDs() []string {
	ids := make([]string, len(x.entries))
	for i, e := range x.entries {
		ids[i] = e.ID
	}
	return ids
}

// ChildrenOf returns the ordered child ids of a top-level entry.
// Returns nil if the id has no top-level entry.
func (x *Index) ChildrenOf(id string) []string {
	for i := range x.entries {
		if x.entries[i].ID == id {
			return append([]string(nil), x.entries[i].Children...)
		}
	}
	return nil
}

// ParentOf returns the folder containing id, or "" with true when id is
// a top-level entry. The second return is false when id is absent.
func (x *Index) ParentOf(id string) (string, bool) {
	for i := range x.entries {
		if x.entries[i].ID == id {
			return "", true
		}
		for _, child := range x.entries[i].Children {
			if child == id {
				return x.entries[i].ID, true
			}
		}
	}
	return "", false
}

// Contains reports whether id appears anywhere in the index.
func (x *Index) Contains(id string) bool {
	_, ok := x.ParentOf(id)
	return ok
}

// Clone returns a deep copy.
func (x *Index) Clone() *Index {
	return &Index{entries: x.Entries()}
}

// entryIndex returns the position of id's top-level entry, or -1.
func (x *Index) entryIndex(id string) int {
	for i := range x.entries {
		if x.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// clampIndex maps an insertion index into [0, n]; negative means append.
func clampIndex(at, n int) int {
	if at < 0 || at > n {
		return n
	}
	return at
}

// InsertRoot adds a new top-level entry with no children. A negative
// index appends; indexes past the end are clamped to the end.
func (x *Index) InsertRoot(id string, at int) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	if x.Contains(id) {
		return fmt.Errorf("%w: %s already indexed", ErrAlreadyExists, id)
	}
	at = clampIndex(at, len(x.entries))
	x.entries = append(x.entries, IndexEntry{})
	copy(x.entries[at+1:], x.entries[at:])
	x.entries[at] = IndexEntry{ID: id}
	return nil
}

// InsertChild adds id to folderID's child list. A negative index
// appends. The caller is responsible for verifying folderID refers to a
// folder item; the index only checks that a top-level entry exists.
func (x *Index) InsertChild(folderID, id string, at int) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	if x.Contains(id) {
		return fmt.Errorf("%w: %s already indexed", ErrAlreadyExists, id)
	}
	i := x.entryIndex(folderID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrParentNotFound, folderID)
	}
	children := x.entries[i].Children
	at = clampIndex(at, len(children))
	children = append(children, "")
	copy(children[at+1:], children[at:])
	children[at] = id
	x.entries[i].Children = children
	return nil
}

// Remove deletes id from the index. A removed top-level entry's
// children are promoted: each becomes a new top-level entry appended at
// the end, never silently dropped. Returns false if id was absent.
func (x *Index) Remove(id string) bool {
	if i := x.entryIndex(id); i >= 0 {
		promoted := x.entries[i].Children
		x.entries = append(x.entries[:i], x.entries[i+1:]...)
		for _, child := range promoted {
			x.entries = append(x.entries, IndexEntry{ID: child})
		}
		return true
	}
	for i := range x.entries {
		for j, child := range x.entries[i].Children {
			if child == id {
				x.entries[i].Children = append(x.entries[i].Children[:j], x.entries[i].Children[j+1:]...)
				return true
			}
		}
	}
	return false
}

// Move atomically relocates id to targetParent ("" for root) at the
// given position. The position is interpreted after removal from the
// old location. An entry that has children cannot become a child of
// another entry; the caller additionally rejects empty folders using
// item metadata, which the index cannot see.
func (x *Index) Move(id, targetParent string, at int) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidInput)
	}
	if id == targetParent {
		return fmt.Errorf("%w: cannot move %s into itself", ErrInvalidInput, id)
	}
	if !x.Contains(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if targetParent != "" {
		if x.entryIndex(targetParent) < 0 {
			return fmt.Errorf("%w: %s", ErrParentNotFound, targetParent)
		}
		if i := x.entryIndex(id); i >= 0 && len(x.entries[i].Children) > 0 {
			return fmt.Errorf("%w: %s has children", ErrFolderNesting, id)
		}
	}

	// Validation done; extract without promoting children.
	var children []string
	if i := x.entryIndex(id); i >= 0 {
		children = x.entries[i].Children
		x.entries = append(x.entries[:i], x.entries[i+1:]...)
	} else {
		x.Remove(id)
	}

	if targetParent == "" {
		at = clampIndex(at, len(x.entries))
		x.entries = append(x.entries, IndexEntry{})
		copy(x.entries[at+1:], x.entries[at:])
		x.entries[at] = IndexEntry{ID: id, Children: children}
		return nil
	}
	return x.InsertChild(targetParent, id, at)
}

// Reorder replaces the order of one scope wholesale: the root list when
// scope is "", otherwise the child list of the scope entry. The new
// sequence must be a permutation of the current scope members.
func (x *Index) Reorder(scope string, ids []string) error {
	var current []string
	if scope == "" {
		current = x.RootIDs()
	} else {
		if x.entryIndex(scope) < 0 {
			return fmt.Errorf("%w: %s", ErrParentNotFound, scope)
		}
		current = x.ChildrenOf(scope)
	}

	if len(ids) != len(current) {
		return fmt.Errorf("%w: reorder sequence has %d ids, scope has %d", ErrInvalidInput, len(ids), len(current))
	}
	members := make(map[string]bool, len(current))
	for _, id := range current {
		members[id] = true
	}
	for _, id := range ids {
		if !members[id] {
			return fmt.Errorf("%w: %s is not in scope", ErrInvalidInput, id)
		}
		delete(members, id)
	}

	if scope == "" {
		byID := make(map[string]IndexEntry, len(x.entries))
		for _, e := range x.entries {
			byID[e.ID] = e
		}
		reordered := make([]IndexEntry, len(ids))
		for i, id := range ids {
			reordered[i] = byID[id]
		}
		x.entries = reordered
		return nil
	}
	x.entries[x.entryIndex(scope)].Children = append([]string(nil), ids...)
	return nil
}

// Normalize reconciles the index with the item set after any bulk
// external change (backup restore, partial writes). It drops ids absent
// from the item set, deduplicates ids keeping the first occurrence, and
// appends indexed-nowhere items to their parent scope in CreatedAt
// order. If the structure itself is untrustworthy (a folder inside a
// child list, or a site entry carrying children) the index is rebuilt
// from scratch from the items' ParentID fields. Returns true if
// anything changed.
//
// Normalize is idempotent: a second run over the same item set is a
// no-op.
func (x *Index) Normalize(items map[string]Item) bool {
	if x.structureBroken(items) {
		rebuilt := buildFromItems(items)
		changed := !x.equal(rebuilt)
		x.entries = rebuilt.entries
		return changed
	}

	changed := false
	seen := make(map[string]bool)
	cleaned := make([]IndexEntry, 0, len(x.entries))
	for _, e := range x.entries {
		if seen[e.ID] || items[e.ID] == nil {
			changed = true
			continue
		}
		seen[e.ID] = true
		children := make([]string, 0, len(e.Children))
		for _, child := range e.Children {
			if seen[child] || items[child] == nil {
				changed = true
				continue
			}
			seen[child] = true
			children = append(children, child)
		}
		if len(children) != len(e.Children) {
			changed = true
		}
		if len(children) == 0 {
			children = nil
		}
		cleaned = append(cleaned, IndexEntry{ID: e.ID, Children: children})
	}
	x.entries = cleaned

	// Append items the index has never seen, ties broken by CreatedAt.
	var missing []Item
	for id, it := range items {
		if !seen[id] {
			missing = append(missing, it)
		}
	}
	sortByCreation(missing)
	var strays []*Site
	for _, it := range missing {
		changed = true
		if site, ok := AsSite(it); ok && site.ParentID != nil {
			strays = append(strays, site)
			continue
		}
		//nolint:errcheck // id is known-absent, insert cannot fail
		_ = x.InsertRoot(it.Meta().ID, -1)
	}
	// Second pass so children attach regardless of creation interleaving.
	for _, site := range strays {
		if parent, ok := items[*site.ParentID]; ok && parent.Type() == ItemTypeFolder {
			if err := x.InsertChild(*site.ParentID, site.ID, -1); err == nil {
				continue
			}
		}
		//nolint:errcheck // id is known-absent, insert cannot fail
		_ = x.InsertRoot(site.ID, -1)
	}
	return changed
}

// structureBroken reports inconsistencies Normalize cannot repair in
// place: a folder id inside a child list, or a non-folder entry that
// claims children.
func (x *Index) structureBroken(items map[string]Item) bool {
	for _, e := range x.entries {
		if len(e.Children) == 0 {
			continue
		}
		if it, ok := items[e.ID]; ok && it.Type() != ItemTypeFolder {
			return true
		}
		for _, child := range e.Children {
			if it, ok := items[child]; ok && it.Type() == ItemTypeFolder {
				return true
			}
		}
	}
	return false
}

// buildFromItems derives an index purely from records: folders and
// parentless sites become root entries, sites with a valid parent
// become that folder's children. Order inside every scope is ascending
// CreatedAt, ties broken by id for stability.
func buildFromItems(items map[string]Item) *Index {
	all := make([]Item, 0, len(items))
	for _, it := range items {
		all = append(all, it)
	}
	sortByCreation(all)

	idx := NewIndex()
	var orphans []*Site
	for _, it := range all {
		switch v := it.(type) {
		case *Folder:
			//nolint:errcheck // ids are unique in a map
			_ = idx.InsertRoot(v.ID, -1)
		case *Site:
			if v.ParentID == nil {
				//nolint:errcheck // ids are unique in a map
				_ = idx.InsertRoot(v.ID, -1)
			} else {
				orphans = append(orphans, v)
			}
		}
	}
	// Second pass so children attach regardless of creation interleaving.
	for _, site := range orphans {
		parent, ok := items[*site.ParentID]
		if ok && parent.Type() == ItemTypeFolder {
			//nolint:errcheck // parent entry was inserted above
			_ = idx.InsertChild(*site.ParentID, site.ID, -1)
			continue
		}
		// Dangling parent reference: keep the site at root.
		//nolint:errcheck // ids are unique in a map
		_ = idx.InsertRoot(site.ID, -1)
	}
	return idx
}

// sortByCreation orders items by ascending CreatedAt, then id.
func sortByCreation(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Meta(), items[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// equal reports whether two indexes hold identical entries.
func (x *Index) equal(other *Index) bool {
	if len(x.entries) != len(other.entries) {
		return false
	}
	for i := range x.entries {
		if x.entries[i].ID != other.entries[i].ID {
			return false
		}
		if len(x.entries[i].Children) != len(other.entries[i].Children) {
			return false
		}
		for j := range x.entries[i].Children {
			if x.entries[i].Children[j] != other.entries[i].Children[j] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the index as a compact tuple list:
// [["id1",["c1","c2"]],["id2",[]]]. This is the persisted layout, not a
// public wire contract.
func (x *Index) MarshalJSON() ([]byte, error) {
	tuples := make([][2]any, len(x.entries))
	for i, e := range x.entries {
		children := e.Children
		if children == nil {
			children = []string{}
		}
		tuples[i] = [2]any{e.ID, children}
	}
	return json.Marshal(tuples)
}

// UnmarshalJSON decodes the tuple list layout.
func (x *Index) UnmarshalJSON(data []byte) error {
	var tuples [][2]json.RawMessage
	if err := json.Unmarshal(data, &tuples); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	entries := make([]IndexEntry, 0, len(tuples))
	for _, t := range tuples {
		var e IndexEntry
		if err := json.Unmarshal(t[0], &e.ID); err != nil {
			return fmt.Errorf("%w: entry id: %v", ErrInvalidIndex, err)
		}
		if err := json.Unmarshal(t[1], &e.Children); err != nil {
			return fmt.Errorf("%w: children of %s: %v", ErrInvalidIndex, e.ID, err)
		}
		if len(e.Children) == 0 {
			e.Children = nil
		}
		entries = append(entries, e)
	}
	x.entries = entries
	return nil
}
