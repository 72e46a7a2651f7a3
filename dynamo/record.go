package dynamo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/snapshot"
)

// Record kinds.
const (
	KindItem = "item"
	KindBlob = "blob"
)

// Record is one row of the item table. Items and blobs share the table
// and are told apart by Kind.
type Record struct {
	// Ref is the table key: "<database>#<item id>" for items and
	// "<database>#blob#<blob id>" for blobs.
	Ref      string `dynamodbav:"id"`
	Kind     string `dynamodbav:"kind"`
	Database string `dynamodbav:"database"`

	ItemID     string           `dynamodbav:"item_id,omitempty"`
	Name       string           `dynamodbav:"name,omitempty"`
	TemplateID string           `dynamodbav:"template_id,omitempty"`
	ParentID   string           `dynamodbav:"parent_id,omitempty"`
	ParentRef  string           `dynamodbav:"parent_ref,omitempty"`
	BranchID   string           `dynamodbav:"branch_id,omitempty"`
	Path       string           `dynamodbav:"path,omitempty"`
	CanRead    bool             `dynamodbav:"can_read"`
	CanWrite   bool             `dynamodbav:"can_write"`
	CanCreate  bool             `dynamodbav:"can_create"`
	CanRename  bool             `dynamodbav:"can_rename"`
	IsTemplate bool             `dynamodbav:"is_template,omitempty"`
	Generated  bool             `dynamodbav:"generated,omitempty"`
	BaseIDs    []string         `dynamodbav:"base_ids,omitempty"`
	Children   []string         `dynamodbav:"children,omitempty"`
	Versions   map[string][]int `dynamodbav:"versions,omitempty"`
	Fields     []FieldRecord    `dynamodbav:"fields,omitempty"`

	BlobID string `dynamodbav:"blob_id,omitempty"`
	Data   []byte `dynamodbav:"data,omitempty"`
	Digest string `dynamodbav:"digest,omitempty"`

	TTL int64 `dynamodbav:"ttl,omitempty"`
}

// FieldRecord is one field of an item record.
type FieldRecord struct {
	ID     string       `dynamodbav:"id"`
	Name   string       `dynamodbav:"name"`
	Shared bool         `dynamodbav:"shared,omitempty"`
	Type   string       `dynamodbav:"type,omitempty"`
	Source string       `dynamodbav:"source,omitempty"`
	Slots  []SlotRecord `dynamodbav:"slots,omitempty"`
}

// SlotRecord is one (language, version) value.
type SlotRecord struct {
	Language string `dynamodbav:"lang"`
	Version  int    `dynamodbav:"ver"`
	Value    string `dynamodbav:"value"`
}

// ItemRef returns the item table key of an item.
func ItemRef(database string, itemID id.ID) string {
	return database + "#" + itemID.String()
}

// BlobRef returns the item table key of a blob.
func BlobRef(database string, blobID uuid.UUID) string {
	return database + "#blob#" + blobID.String()
}

// ParseItemRef splits an item reference into database and identifier.
func ParseItemRef(ref string) (string, id.ID, error) {
	database, raw, ok := strings.Cut(ref, "#")
	if !ok || database == "" {
		return "", id.Null, fmt.Errorf("%w: item ref %q", ErrMalformedRecord, ref)
	}
	itemID, err := id.Parse(raw)
	if err != nil {
		return "", id.Null, fmt.Errorf("%w: item ref %q: %w", ErrMalformedRecord, ref, err)
	}
	return database, itemID, nil
}

// ParseBlobRef splits a blob reference into database and identifier.
func ParseBlobRef(ref string) (string, uuid.UUID, error) {
	database, raw, ok := strings.Cut(ref, "#blob#")
	if !ok || database == "" {
		return "", uuid.Nil, fmt.Errorf("%w: blob ref %q", ErrMalformedRecord, ref)
	}
	blobID, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: blob ref %q: %w", ErrMalformedRecord, ref, err)
	}
	return database, blobID, nil
}

// itemRecord converts a snapshot item into a table record.
func itemRecord(database string, r snapshot.ItemRecord) Record {
	rec := Record{
		Ref:        ItemRef(database, r.ID),
		Kind:       KindItem,
		Database:   database,
		ItemID:     r.ID.String(),
		Name:       r.Name,
		TemplateID: r.TemplateID.String(),
		Path:       r.FullPath,
		CanRead:    r.Access.Read,
		CanWrite:   r.Access.Write,
		CanCreate:  r.Access.Create,
		CanRename:  r.Access.Rename,
		IsTemplate: r.IsTemplate,
		Generated:  r.Generated,
		Versions:   r.Versions,
	}
	if !r.ParentID.IsNull() {
		rec.ParentID = r.ParentID.String()
		rec.ParentRef = ItemRef(database, r.ParentID)
	}
	if !r.BranchID.IsNull() {
		rec.BranchID = r.BranchID.String()
	}
	for _, b := range r.BaseIDs {
		rec.BaseIDs = append(rec.BaseIDs, b.String())
	}
	for _, c := range r.Children {
		rec.Children = append(rec.Children, c.String())
	}
	for _, f := range r.Fields {
		fr := FieldRecord{ID: f.ID.String(), Name: f.Name, Shared: f.Shared, Type: f.Type, Source: f.Source}
		for _, s := range f.Slots {
			fr.Slots = append(fr.Slots, SlotRecord{Language: s.Language, Version: s.Version, Value: s.Value})
		}
		rec.Fields = append(rec.Fields, fr)
	}
	return rec
}

// blobRecord converts a snapshot blob into a table record.
func blobRecord(database string, b snapshot.BlobRecord) Record {
	return Record{
		Ref:      BlobRef(database, b.ID),
		Kind:     KindBlob,
		Database: database,
		BlobID:   b.ID.String(),
		Data:     b.Data,
		Digest:   b.Digest.String(),
	}
}

// Item converts an item record back into its snapshot form.
func (r Record) Item() (snapshot.ItemRecord, error) {
	if r.Kind != KindItem {
		return snapshot.ItemRecord{}, fmt.Errorf("%w: %s is a %s record", ErrMalformedRecord, r.Ref, r.Kind)
	}
	var err error
	parse := func(s string) id.ID {
		if s == "" || err != nil {
			return id.Null
		}
		v, perr := id.Parse(s)
		if perr != nil {
			err = fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.Ref, perr)
		}
		return v
	}

	out := snapshot.ItemRecord{
		ID:         parse(r.ItemID),
		Name:       r.Name,
		TemplateID: parse(r.TemplateID),
		ParentID:   parse(r.ParentID),
		BranchID:   parse(r.BranchID),
		FullPath:   r.Path,
		Access: snapshot.AccessRecord{
			Read:   r.CanRead,
			Write:  r.CanWrite,
			Create: r.CanCreate,
			Rename: r.CanRename,
		},
		IsTemplate: r.IsTemplate,
		Generated:  r.Generated,
		Versions:   r.Versions,
	}
	for _, b := range r.BaseIDs {
		out.BaseIDs = append(out.BaseIDs, parse(b))
	}
	for _, c := range r.Children {
		out.Children = append(out.Children, parse(c))
	}
	for _, f := range r.Fields {
		fr := snapshot.FieldRecord{ID: parse(f.ID), Name: f.Name, Shared: f.Shared, Type: f.Type, Source: f.Source}
		for _, s := range f.Slots {
			fr.Slots = append(fr.Slots, snapshot.SlotRecord{Language: s.Language, Version: s.Version, Value: s.Value})
		}
		out.Fields = append(out.Fields, fr)
	}
	if err != nil {
		return snapshot.ItemRecord{}, err
	}
	if out.ID.IsNull() {
		return snapshot.ItemRecord{}, fmt.Errorf("%w: %s has no item id", ErrMalformedRecord, r.Ref)
	}
	return out, nil
}

// Blob converts a blob record back into its snapshot form. The digest is
// recomputed; a mismatch is reported as malformed.
func (r Record) Blob() (snapshot.BlobRecord, error) {
	if r.Kind != KindBlob {
		return snapshot.BlobRecord{}, fmt.Errorf("%w: %s is a %s record", ErrMalformedRecord, r.Ref, r.Kind)
	}
	blobID, err := uuid.Parse(r.BlobID)
	if err != nil {
		return snapshot.BlobRecord{}, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, r.Ref, err)
	}
	digest := snapshot.DigestOf(r.Data)
	if digest.String() != r.Digest {
		return snapshot.BlobRecord{}, fmt.Errorf("%w: %s digest mismatch", ErrMalformedRecord, r.Ref)
	}
	return snapshot.BlobRecord{ID: blobID, Digest: digest, Data: r.Data}, nil
}
