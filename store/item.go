package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacentio/fakedb/id"
)

// Access carries the per-item permission gate honoured by the provider.
type Access struct {
	CanRead   bool
	CanWrite  bool
	CanCreate bool
	CanRename bool
}

// FullAccess allows every operation.
func FullAccess() Access {
	return Access{CanRead: true, CanWrite: true, CanCreate: true, CanRename: true}
}

// Item is a node in the content tree. Templates are items too; see
// [NewTemplate].
//
// An item is built detached, with children declared through AddChild,
// and registered with [Storage.AddFakeItem]. After registration its
// children are referenced by identifier and resolved through the storage.
type Item struct {
	ID         id.ID
	Name       string
	TemplateID id.ID
	ParentID   id.ID
	BranchID   id.ID
	FullPath   string
	Access     Access

	// IsTemplate marks items describing a schema. Their fields declare
	// the schema; values on them are standard values.
	IsTemplate bool
	// BaseIDs lists the templates a template inherits from.
	BaseIDs []id.ID
	// Generated marks templates synthesized during registration.
	Generated bool

	fields   []*Field
	byID     map[id.ID]*Field
	pending  []*Item
	childIDs []id.ID
	versions map[string]map[int]struct{}
}

// NewItem returns an item with a fresh identifier.
func NewItem(name string) *Item {
	return NewItemWithID(name, id.New())
}

// NewItemWithID returns an item with the given identifier. An empty name
// defaults to the short form of the identifier.
func NewItemWithID(name string, itemID id.ID) *Item {
	if name == "" {
		name = itemID.Short()
	}
	return &Item{
		ID:     itemID,
		Name:   name,
		Access: FullAccess(),
	}
}

// NewItemWithTemplate returns an item based on templateID.
func NewItemWithTemplate(name string, itemID, templateID id.ID) *Item {
	item := NewItemWithID(name, itemID)
	item.TemplateID = templateID
	return item
}

// NewTemplate returns a template with the given identifier, or a fresh
// one when templateID is Null. Its template is the template template.
func NewTemplate(name string, templateID id.ID) *Item {
	if templateID.IsNull() {
		templateID = id.New()
	}
	t := NewItemWithTemplate(name, templateID, id.TemplateTemplate)
	t.IsTemplate = true
	return t
}

// AddFieldValue adds a field named name holding value in the default
// language, version 1.
func (i *Item) AddFieldValue(name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidArgument)
	}
	return i.addWithValue(NewField(name), value)
}

// AddFieldValueByID adds the field fieldID holding value in the default
// language, version 1.
func (i *Item) AddFieldValueByID(fieldID id.ID, value string) error {
	if fieldID.IsNull() {
		return fmt.Errorf("%w: field id is required", ErrInvalidArgument)
	}
	return i.addWithValue(NewFieldWithID(fieldID), value)
}

func (i *Item) addWithValue(f *Field, value string) error {
	if err := f.AddVersion(DefaultLanguage, 1, value); err != nil {
		return err
	}
	return i.AddField(f)
}

// AddField adds f to the item. Field identifiers are unique per item.
func (i *Item) AddField(f *Field) error {
	if f == nil {
		return fmt.Errorf("%w: field is required", ErrInvalidArgument)
	}
	if f.ID.IsNull() {
		return fmt.Errorf("%w: field id is required", ErrInvalidArgument)
	}
	if _, ok := i.byID[f.ID]; ok {
		return fmt.Errorf("%w: field %s (%q) is already present on item %q",
			ErrAlreadyExists, f.ID, f.Name, i.Name)
	}
	if f.Name == "" {
		f.Name = f.ID.Short()
	}
	if i.byID == nil {
		i.byID = make(map[id.ID]*Field)
	}
	i.byID[f.ID] = f
	i.fields = append(i.fields, f)
	return nil
}

// Field returns the field fieldID, or nil.
func (i *Item) Field(fieldID id.ID) *Field {
	return i.byID[fieldID]
}

// FieldByName returns the first field named name, ignoring case, or nil.
func (i *Item) FieldByName(name string) *Field {
	for _, f := range i.fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// Fields returns the fields in insertion order.
func (i *Item) Fields() []*Field {
	out := make([]*Field, len(i.fields))
	copy(out, i.fields)
	return out
}

// RemoveField removes the field fieldID and reports whether it existed.
func (i *Item) RemoveField(fieldID id.ID) bool {
	if _, ok := i.byID[fieldID]; !ok {
		return false
	}
	delete(i.byID, fieldID)
	for n, f := range i.fields {
		if f.ID == fieldID {
			i.fields = append(i.fields[:n], i.fields[n+1:]...)
			break
		}
	}
	return true
}

// rekeyField moves a field to a new identifier, keeping its position.
func (i *Item) rekeyField(from, to id.ID) {
	f, ok := i.byID[from]
	if !ok {
		return
	}
	if _, taken := i.byID[to]; taken {
		return
	}
	delete(i.byID, from)
	f.ID = to
	i.byID[to] = f
}

// AddChild declares child to be registered under this item. It does not
// link the child to its parent; registration does.
func (i *Item) AddChild(child *Item) error {
	if child == nil {
		return fmt.Errorf("%w: child item is required", ErrInvalidArgument)
	}
	i.pending = append(i.pending, child)
	return nil
}

// Children returns the declared children not yet registered.
func (i *Item) Children() []*Item {
	out := make([]*Item, len(i.pending))
	copy(out, i.pending)
	return out
}

// ChildIDs returns the identifiers of the registered children in order.
func (i *Item) ChildIDs() []id.ID {
	out := make([]id.ID, len(i.childIDs))
	copy(out, i.childIDs)
	return out
}

// HasChild reports whether childID is a registered child.
func (i *Item) HasChild(childID id.ID) bool {
	for _, c := range i.childIDs {
		if c == childID {
			return true
		}
	}
	return false
}

func (i *Item) attachChild(childID id.ID) {
	if !i.HasChild(childID) {
		i.childIDs = append(i.childIDs, childID)
	}
}

func (i *Item) detachChild(childID id.ID) bool {
	for n, c := range i.childIDs {
		if c == childID {
			i.childIDs = append(i.childIDs[:n], i.childIDs[n+1:]...)
			return true
		}
	}
	return false
}

// AddVersion adds version latest+1 for language across every field and
// returns the new version count. Versioned fields copy their value from
// base (0 meaning the latest version); shared fields keep their value.
func (i *Item) AddVersion(language string, base int) (int, error) {
	if language == "" {
		return 0, fmt.Errorf("%w: language is required", ErrInvalidArgument)
	}
	if base < 0 {
		return 0, fmt.Errorf("%w: base version must not be negative, got %d", ErrInvalidArgument, base)
	}

	latest := i.Latest(language)
	if base == 0 {
		base = latest
	}
	next := latest + 1

	for _, f := range i.fields {
		var value string
		if f.Shared {
			value = f.sharedValue()
		} else if base > 0 {
			value = f.Get(language, base)
		}
		if f.Latest(language) >= next {
			continue
		}
		if err := f.AddVersion(language, next, value); err != nil {
			return 0, err
		}
	}
	i.markVersion(language, next)
	return i.VersionCount(language), nil
}

// RemoveVersion removes the latest version for language from every
// field. It returns false when the language has no versions.
func (i *Item) RemoveVersion(language string) bool {
	latest := i.Latest(language)
	if latest == 0 {
		return false
	}
	return i.RemoveVersionNumber(language, latest)
}

// RemoveVersionNumber removes version n for language from every field,
// keeping the others.
func (i *Item) RemoveVersionNumber(language string, n int) bool {
	found := false
	if _, ok := i.versions[language][n]; ok {
		delete(i.versions[language], n)
		if len(i.versions[language]) == 0 {
			delete(i.versions, language)
		}
		found = true
	}
	for _, f := range i.fields {
		if f.RemoveVersion(language, n) {
			found = true
		}
	}
	return found
}

// Versions returns the versions present for language in ascending order.
func (i *Item) Versions(language string) []int {
	set := make(map[int]struct{})
	for v := range i.versions[language] {
		set[v] = struct{}{}
	}
	for _, f := range i.fields {
		for _, v := range f.Versions(language) {
			set[v] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// VersionCount returns the number of versions present for language.
func (i *Item) VersionCount(language string) int {
	return len(i.Versions(language))
}

// Latest returns the highest version present for language, or 0.
func (i *Item) Latest(language string) int {
	versions := i.Versions(language)
	if len(versions) == 0 {
		return 0
	}
	return versions[len(versions)-1]
}

// Languages returns the languages holding at least one version, sorted.
func (i *Item) Languages() []string {
	set := make(map[string]struct{})
	for lang := range i.versions {
		set[lang] = struct{}{}
	}
	for _, f := range i.fields {
		for _, lang := range f.Languages() {
			set[lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (i *Item) markVersion(language string, version int) {
	if i.versions == nil {
		i.versions = make(map[string]map[int]struct{})
	}
	if i.versions[language] == nil {
		i.versions[language] = make(map[int]struct{})
	}
	i.versions[language][version] = struct{}{}
}

// Clone returns a detached deep copy of the item with the given
// identifier and name. Registered children are not copied.
func (i *Item) Clone(itemID id.ID, name string) *Item {
	c := NewItemWithTemplate(name, itemID, i.TemplateID)
	c.BranchID = i.BranchID
	c.Access = i.Access
	c.IsTemplate = i.IsTemplate
	c.BaseIDs = append([]id.ID(nil), i.BaseIDs...)
	for _, f := range i.fields {
		_ = c.AddField(f.Clone())
	}
	for lang, versions := range i.versions {
		for v := range versions {
			c.markVersion(lang, v)
		}
	}
	return c
}

// fieldNames returns the names of the item's non-standard fields.
func (i *Item) fieldNames() []string {
	names := make([]string, 0, len(i.fields))
	for _, f := range i.fields {
		if !isStandard(f) {
			names = append(names, f.Name)
		}
	}
	return names
}
