package domain

import (
	"encoding/json"
	"fmt"
)

// backupVersion identifies the current export layout.
const backupVersion = 1

// Backup is the portable export document: every item record plus the
// order/hierarchy index. The index is optional on import; a missing or
// damaged index is rebuilt from the records' parent references.
type Backup struct {
	// Items is every grid item record.
	Items []Item

	// Index is the order/hierarchy structure, or nil.
	Index *Index
}

// backupJSON is the serialized document shape.
type backupJSON struct {
	Version   int               `json:"version"`
	GridItems []json.RawMessage `json:"gridItems"`
	GridIndex *Index            `json:"gridIndex,omitempty"`
}

// MarshalJSON encodes the backup document.
func (b *Backup) MarshalJSON() ([]byte, error) {
	doc := backupJSON{
		Version:   backupVersion,
		GridItems: make([]json.RawMessage, 0, len(b.Items)),
		GridIndex: b.Index,
	}
	for _, it := range b.Items {
		raw, err := MarshalItem(it)
		if err != nil {
			return nil, err
		}
		doc.GridItems = append(doc.GridItems, raw)
	}
	return json.Marshal(doc)
}

// DecodeBackup parses and schema-validates a backup document. The whole
// document is rejected on any malformed record; a partially valid
// backup is never applied. Duplicate item ids are a schema violation.
func DecodeBackup(data []byte) (*Backup, error) {
	var doc backupJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if doc.Version > backupVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSchemaMismatch, doc.Version)
	}
	if doc.GridItems == nil {
		return nil, fmt.Errorf("%w: missing gridItems", ErrSchemaMismatch)
	}

	b := &Backup{
		Items: make([]Item, 0, len(doc.GridItems)),
		Index: doc.GridIndex,
	}
	seen := make(map[string]bool, len(doc.GridItems))
	for i, raw := range doc.GridItems {
		it, err := UnmarshalItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		id := it.Meta().ID
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate item id %s", ErrSchemaMismatch, id)
		}
		seen[id] = true
		b.Items = append(b.Items, it)
	}
	return b, nil
}
