package domain

// Projection is the render-ready view combining the item records with
// the index: a map for O(1) lookup, the ordered root list, and resolved
// per-folder child lists. It is rebuilt in a single pass at load time
// and kept current by the mutation layer on every change, so rendering
// never scans.
type Projection struct {
	itemsMap map[string]Item
	roots    []Item
	children map[string][]*Site
}

// NewProjection returns an empty projection.
func NewProjection() *Projection {
	return &Projection{
		itemsMap: make(map[string]Item),
		children: make(map[string][]*Site),
	}
}

// Rebuild derives the projection from items and index in one O(n)
// pass. Ids present in the index but absent from the item set, and
// child ids that do not resolve to sites, are dropped and reported for
// logging; a dangling reference never fails the rebuild.
func (p *Projection) Rebuild(items []Item, index *Index) (dropped []string) {
	p.itemsMap = make(map[string]Item, len(items))
	for _, it := range items {
		p.itemsMap[it.Meta().ID] = it
	}

	p.roots = p.roots[:0]
	p.children = make(map[string][]*Site)
	for _, e := range index.Entries() {
		it, ok := p.itemsMap[e.ID]
		if !ok {
			dropped = append(dropped, e.ID)
			continue
		}
		p.roots = append(p.roots, it)
		if it.Type() != ItemTypeFolder {
			continue
		}
		resolved := make([]*Site, 0, len(e.Children))
		for _, childID := range e.Children {
			site, ok := p.itemsMap[childID].(*Site)
			if !ok {
				dropped = append(dropped, childID)
				continue
			}
			resolved = append(resolved, site)
		}
		p.children[e.ID] = resolved
	}
	return dropped
}

// Get returns the item by id.
func (p *Projection) Get(id string) (Item, bool) {
	it, ok := p.itemsMap[id]
	return it, ok
}

// Roots returns the root-level items in display order.
func (p *Projection) Roots() []Item {
	return append([]Item(nil), p.roots...)
}

// ChildrenOf returns the resolved, ordered child sites of a folder.
// Returns nil for unknown ids and for sites.
func (p *Projection) ChildrenOf(folderID string) []*Site {
	return append([]*Site(nil), p.children[folderID]...)
}

// Folders returns every folder in root display order.
func (p *Projection) Folders() []*Folder {
	var folders []*Folder
	for _, it := range p.roots {
		if f, ok := AsFolder(it); ok {
			folders = append(folders, f)
		}
	}
	return folders
}

// Len returns the total number of items.
func (p *Projection) Len() int {
	return len(p.itemsMap)
}

// Items returns every item, in no particular order.
func (p *Projection) Items() []Item {
	out := make([]Item, 0, len(p.itemsMap))
	for _, it := range p.itemsMap {
		out = append(out, it)
	}
	return out
}
