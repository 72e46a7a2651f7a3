// Package snapshot captures a storage as plain records and restores it.
//
// A [Snapshot] lists every registered item (seed nodes and synthesized
// templates included) with its field slots, child order and versions,
// plus every blob with its BLAKE3 digest. Snapshots encode to
// deterministic CBOR: the same storage always produces the same bytes.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
)

// ErrCorrupt is returned when a snapshot cannot be decoded or fails
// verification.
var ErrCorrupt = errors.New("snapshot: corrupt snapshot")

// FormatVersion is the layout version written by Take.
const FormatVersion = 1

// Snapshot is a point-in-time copy of one storage.
type Snapshot struct {
	Version         int          `cbor:"version"`
	Database        string       `cbor:"database"`
	DefaultLanguage string       `cbor:"default_language"`
	Items           []ItemRecord `cbor:"items"`
	Blobs           []BlobRecord `cbor:"blobs,omitempty"`
}

// ItemRecord is one item of a snapshot.
type ItemRecord struct {
	ID         id.ID            `cbor:"id"`
	Name       string           `cbor:"name"`
	TemplateID id.ID            `cbor:"template_id"`
	ParentID   id.ID            `cbor:"parent_id"`
	BranchID   id.ID            `cbor:"branch_id"`
	FullPath   string           `cbor:"path"`
	Access     AccessRecord     `cbor:"access"`
	IsTemplate bool             `cbor:"is_template,omitempty"`
	Generated  bool             `cbor:"generated,omitempty"`
	BaseIDs    []id.ID          `cbor:"base_ids,omitempty"`
	Children   []id.ID          `cbor:"children,omitempty"`
	Versions   map[string][]int `cbor:"versions,omitempty"`
	Fields     []FieldRecord    `cbor:"fields,omitempty"`
}

// AccessRecord mirrors store.Access.
type AccessRecord struct {
	Read   bool `cbor:"read"`
	Write  bool `cbor:"write"`
	Create bool `cbor:"create"`
	Rename bool `cbor:"rename"`
}

// FieldRecord is one field of an item with its stored slots.
type FieldRecord struct {
	ID     id.ID        `cbor:"id"`
	Name   string       `cbor:"name"`
	Shared bool         `cbor:"shared,omitempty"`
	Type   string       `cbor:"type,omitempty"`
	Source string       `cbor:"source,omitempty"`
	Slots  []SlotRecord `cbor:"slots,omitempty"`
}

// SlotRecord is one (language, version) value.
type SlotRecord struct {
	Language string `cbor:"lang"`
	Version  int    `cbor:"ver"`
	Value    string `cbor:"value"`
}

// BlobRecord is one blob with the digest of its content.
type BlobRecord struct {
	ID     uuid.UUID `cbor:"id"`
	Digest Digest    `cbor:"digest"`
	Data   []byte    `cbor:"data"`
}

// Take captures s.
func Take(s *store.Storage) *Snapshot {
	cfg := s.Config()
	snap := &Snapshot{
		Version:         FormatVersion,
		Database:        cfg.Name,
		DefaultLanguage: cfg.DefaultLanguage,
	}
	for _, n := range s.Export() {
		snap.Items = append(snap.Items, itemRecord(n))
	}
	for _, bid := range s.BlobIDs() {
		data, ok := s.Blob(bid)
		if !ok {
			continue
		}
		snap.Blobs = append(snap.Blobs, BlobRecord{ID: bid, Digest: DigestOf(data), Data: data})
	}
	return snap
}

// ItemRecordOf converts one exported node.
func ItemRecordOf(n store.Node) ItemRecord {
	return itemRecord(n)
}

func itemRecord(n store.Node) ItemRecord {
	item := n.Item
	r := ItemRecord{
		ID:         item.ID,
		Name:       item.Name,
		TemplateID: item.TemplateID,
		ParentID:   item.ParentID,
		BranchID:   item.BranchID,
		FullPath:   item.FullPath,
		Access: AccessRecord{
			Read:   item.Access.CanRead,
			Write:  item.Access.CanWrite,
			Create: item.Access.CanCreate,
			Rename: item.Access.CanRename,
		},
		IsTemplate: item.IsTemplate,
		Generated:  item.Generated,
		BaseIDs:    append([]id.ID(nil), item.BaseIDs...),
		Children:   n.Children,
	}
	if len(n.Versions) > 0 {
		r.Versions = n.Versions
	}
	for _, f := range item.Fields() {
		fr := FieldRecord{ID: f.ID, Name: f.Name, Shared: f.Shared, Type: f.Type, Source: f.Source}
		for _, slot := range f.Slots() {
			fr.Slots = append(fr.Slots, SlotRecord{Language: slot.Language, Version: slot.Version, Value: slot.Value})
		}
		r.Fields = append(r.Fields, fr)
	}
	return r
}

// Node converts the record back into a detached storage node.
func (r ItemRecord) Node() (store.Node, error) {
	item := store.NewItemWithTemplate(r.Name, r.ID, r.TemplateID)
	item.ParentID = r.ParentID
	item.BranchID = r.BranchID
	item.FullPath = r.FullPath
	item.Access = store.Access{
		CanRead:   r.Access.Read,
		CanWrite:  r.Access.Write,
		CanCreate: r.Access.Create,
		CanRename: r.Access.Rename,
	}
	item.IsTemplate = r.IsTemplate
	item.Generated = r.Generated
	item.BaseIDs = append([]id.ID(nil), r.BaseIDs...)

	for _, fr := range r.Fields {
		f := &store.Field{ID: fr.ID, Name: fr.Name, Shared: fr.Shared, Type: fr.Type, Source: fr.Source}
		slots := make([]store.Slot, 0, len(fr.Slots))
		for _, s := range fr.Slots {
			slots = append(slots, store.Slot{Language: s.Language, Version: s.Version, Value: s.Value})
		}
		if err := f.Restore(slots); err != nil {
			return store.Node{}, fmt.Errorf("item %s: %w", r.ID, err)
		}
		if err := item.AddField(f); err != nil {
			return store.Node{}, fmt.Errorf("item %s: %w", r.ID, err)
		}
	}
	return store.Node{Item: item, Children: r.Children, Versions: r.Versions}, nil
}

// Restore builds a new storage from the snapshot. An empty config name
// or default language is taken from the snapshot.
func (snap *Snapshot) Restore(config store.Config) (*store.Storage, error) {
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}
	if config.Name == "" {
		config.Name = snap.Database
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = snap.DefaultLanguage
	}

	nodes := make([]store.Node, 0, len(snap.Items))
	for _, r := range snap.Items {
		n, err := r.Node()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		nodes = append(nodes, n)
	}

	blobs := make(map[uuid.UUID][]byte, len(snap.Blobs))
	for _, b := range snap.Blobs {
		if DigestOf(b.Data) != b.Digest {
			return nil, fmt.Errorf("%w: blob %s digest mismatch", ErrCorrupt, b.ID)
		}
		blobs[b.ID] = b.Data
	}

	s, err := store.Rebuild(config, nodes, blobs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}

// Clone returns an independent copy of s made through a snapshot.
func Clone(s *store.Storage) (*store.Storage, error) {
	return Take(s).Restore(s.Config())
}
