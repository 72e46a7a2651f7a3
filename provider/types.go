package provider

import (
	"time"

	"github.com/jacentio/fakedb/id"
)

// ItemDefinition identifies an item in host requests.
type ItemDefinition struct {
	ID         id.ID
	Name       string
	TemplateID id.ID
	BranchID   id.ID
}

// VersionURI addresses one language version of an item. Version 0 means
// the latest.
type VersionURI struct {
	Language string
	Version  int
}

// FieldChange is one field value written by SaveItem.
type FieldChange struct {
	FieldID  id.ID
	Language string
	Version  int
	Value    string
}

// ItemChanges carries the property and field changes of a SaveItem call.
// The "name" property renames the item.
type ItemChanges struct {
	Properties   map[string]string
	FieldChanges []FieldChange
}

// PropertyName is the ItemChanges property that renames an item.
const PropertyName = "name"

// HasFieldsChanged reports whether the changes write any field.
func (c ItemChanges) HasFieldsChanged() bool {
	return len(c.FieldChanges) > 0
}

// TemplateDefinition describes a template to the host.
type TemplateDefinition struct {
	ID      id.ID
	Name    string
	BaseIDs []id.ID
	Section TemplateSection
}

// TemplateSection groups the fields of a template.
type TemplateSection struct {
	ID     id.ID
	Name   string
	Fields []TemplateField
}

// TemplateField declares one field of a template.
type TemplateField struct {
	ID     id.ID
	Name   string
	Shared bool
	Type   string
	Source string
}

// PublishQueueItem is an item queued for publishing.
type PublishQueueItem struct {
	ItemID id.ID
	Action string
	Date   time.Time
}
