package store

import "github.com/jacentio/fakedb/id"

// Field types.
const (
	TypeCheckbox   = "Checkbox"
	TypeDatetime   = "Datetime"
	TypeSingleLine = "Single-Line Text"
	TypeTreelist   = "Treelist"
	TypeReference  = "Reference"
	TypeSecurity   = "Security"
)

type standardField struct {
	ID     id.ID
	Name   string
	Shared bool
	Type   string
}

// standardFields is the platform's built-in field set, declared by the
// standard template and inherited by every other template.
var standardFields = []standardField{
	{id.FieldSecurity, "__Security", true, TypeSecurity},
	{id.FieldHidden, "__Hidden", true, TypeCheckbox},
	{id.FieldBaseTemplate, "__Base template", true, TypeTreelist},
	{id.FieldStandardValues, "__Standard values", true, TypeReference},
	{id.FieldSortorder, "__Sortorder", true, TypeSingleLine},
	{id.FieldCreated, "__Created", false, TypeDatetime},
	{id.FieldUpdated, "__Updated", false, TypeDatetime},
	{id.FieldRevision, "__Revision", false, TypeSingleLine},
	{id.FieldDisplayName, "__Display name", false, TypeSingleLine},
	{id.FieldWorkflow, "__Workflow", true, TypeReference},
	{id.FieldWorkflowState, "__Workflow state", false, TypeReference},
	{id.FieldOwner, "__Owner", false, TypeSingleLine},
}

var (
	standardByID   = make(map[id.ID]standardField, len(standardFields))
	standardByName = make(map[string]standardField, len(standardFields))
)

func init() {
	for _, f := range standardFields {
		standardByID[f.ID] = f
		standardByName[lowerName(f.Name)] = f
	}
}

// IsStandardField reports whether fieldID is one of the built-in fields.
func IsStandardField(fieldID id.ID) bool {
	_, ok := standardByID[fieldID]
	return ok
}

// IsStandardFieldName reports whether name is the name of a built-in
// field. The comparison ignores case.
func IsStandardFieldName(name string) bool {
	_, ok := standardByName[lowerName(name)]
	return ok
}

// StandardFieldIDs returns the identifiers of the built-in fields.
func StandardFieldIDs() []id.ID {
	ids := make([]id.ID, len(standardFields))
	for i, f := range standardFields {
		ids[i] = f.ID
	}
	return ids
}

func isStandard(f *Field) bool {
	return IsStandardField(f.ID) || IsStandardFieldName(f.Name)
}
