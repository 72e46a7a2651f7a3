package store

import (
	"fmt"
	"sort"

	"github.com/jacentio/fakedb/id"
)

// Field is a named, typed value slot on an item. Values are stored per
// language and per version (starting at 1); reads of unset slots return "".
//
// A zero Field is ready to use once ID and Name are set.
type Field struct {
	ID     id.ID
	Name   string
	Shared bool
	Type   string
	Source string

	values map[string]map[int]string
}

// NewField returns a field with a fresh identifier. Built-in field names
// resolve to their well-known identifier, shared flag and type.
func NewField(name string) *Field {
	if sf, ok := standardByName[lowerName(name)]; ok {
		return &Field{ID: sf.ID, Name: sf.Name, Shared: sf.Shared, Type: sf.Type}
	}
	return &Field{ID: id.New(), Name: name}
}

// NewFieldWithID returns a field for fieldID. Built-in identifiers resolve
// to their name, shared flag and type; any other field is named after the
// short form of its identifier.
func NewFieldWithID(fieldID id.ID) *Field {
	if sf, ok := standardByID[fieldID]; ok {
		return &Field{ID: sf.ID, Name: sf.Name, Shared: sf.Shared, Type: sf.Type}
	}
	return &Field{ID: fieldID, Name: fieldID.Short()}
}

// Add appends value at the next version of language.
func (f *Field) Add(language, value string) error {
	return f.AddVersion(language, f.Latest(language)+1, value)
}

// AddVersion stores value at (language, version). Missing lower versions
// are back-filled with "" down to the nearest present one.
func (f *Field) AddVersion(language string, version int, value string) error {
	if language == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidArgument)
	}
	if version <= 0 {
		return fmt.Errorf("%w: version must be positive, got %d", ErrInvalidArgument, version)
	}
	if f.values == nil {
		f.values = make(map[string]map[int]string)
	}
	versions, ok := f.values[language]
	if !ok {
		versions = make(map[int]string)
		f.values[language] = versions
	}
	if _, taken := versions[version]; taken {
		return fmt.Errorf("%w: field %q already has version %d for language %q",
			ErrAlreadyExists, f.Name, version, language)
	}

	versions[version] = value
	for v := version - 1; v >= 1; v-- {
		if _, ok := versions[v]; ok {
			break
		}
		versions[v] = ""
	}

	if f.Shared {
		f.fill(value)
	}
	return nil
}

// Get returns the value at (language, version), version 0 meaning the
// latest. Shared fields return their single value for any request.
func (f *Field) Get(language string, version int) string {
	if f.Shared {
		return f.sharedValue()
	}
	versions := f.values[language]
	if len(versions) == 0 {
		return ""
	}
	if version == 0 {
		version = f.Latest(language)
	}
	return versions[version]
}

// lookup is Get that also reports whether the slot is stored.
func (f *Field) lookup(language string, version int) (string, bool) {
	if f.Shared {
		return f.sharedValue(), f.HasValues()
	}
	if version == 0 {
		version = f.Latest(language)
	}
	value, ok := f.values[language][version]
	return value, ok
}

// Set writes value at (language, version), adding the slot if missing.
// Version 0 means the latest, or 1 when the language has none.
func (f *Field) Set(language string, version int, value string) error {
	if language == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidArgument)
	}
	if version < 0 {
		return fmt.Errorf("%w: version must not be negative, got %d", ErrInvalidArgument, version)
	}
	if version == 0 {
		version = max(f.Latest(language), 1)
	}
	versions := f.values[language]
	if _, ok := versions[version]; !ok {
		return f.AddVersion(language, version, value)
	}

	versions[version] = value
	if f.Shared {
		f.fill(value)
	}
	return nil
}

// Value returns the latest value for language.
func (f *Field) Value(language string) string {
	return f.Get(language, 0)
}

// SetValue writes the latest value for language.
func (f *Field) SetValue(language, value string) error {
	return f.Set(language, 0, value)
}

// RemoveVersion deletes the (language, version) slot. It reports whether
// the slot existed.
func (f *Field) RemoveVersion(language string, version int) bool {
	versions := f.values[language]
	if _, ok := versions[version]; !ok {
		return false
	}
	delete(versions, version)
	if len(versions) == 0 {
		delete(f.values, language)
	}
	return true
}

// Latest returns the highest version stored for language, or 0.
func (f *Field) Latest(language string) int {
	latest := 0
	for v := range f.values[language] {
		if v > latest {
			latest = v
		}
	}
	return latest
}

// Languages returns the languages holding at least one version, sorted.
func (f *Field) Languages() []string {
	langs := make([]string, 0, len(f.values))
	for lang := range f.values {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Versions returns the versions stored for language in ascending order.
func (f *Field) Versions(language string) []int {
	versions := make([]int, 0, len(f.values[language]))
	for v := range f.values[language] {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

// HasValues reports whether any slot is stored.
func (f *Field) HasValues() bool {
	return len(f.values) > 0
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	c.values = nil
	if f.values != nil {
		c.values = make(map[string]map[int]string, len(f.values))
		for lang, versions := range f.values {
			cv := make(map[int]string, len(versions))
			for v, value := range versions {
				cv[v] = value
			}
			c.values[lang] = cv
		}
	}
	return &c
}

// cloneSchema copies the field declaration without values.
func (f *Field) cloneSchema() *Field {
	return &Field{ID: f.ID, Name: f.Name, Shared: f.Shared, Type: f.Type, Source: f.Source}
}

// fill writes value into every stored slot.
func (f *Field) fill(value string) {
	for _, versions := range f.values {
		for v := range versions {
			versions[v] = value
		}
	}
}

func (f *Field) sharedValue() string {
	for _, lang := range f.Languages() {
		if versions := f.Versions(lang); len(versions) > 0 {
			return f.values[lang][versions[0]]
		}
	}
	return ""
}

// Slot is one stored (language, version) value of a field.
type Slot struct {
	Language string
	Version  int
	Value    string
}

// Slots returns every stored slot ordered by language, then version.
func (f *Field) Slots() []Slot {
	var out []Slot
	for _, lang := range f.Languages() {
		for _, v := range f.Versions(lang) {
			out = append(out, Slot{Language: lang, Version: v, Value: f.values[lang][v]})
		}
	}
	return out
}

// Restore writes slots exactly as given, without back-filling. It is the
// inverse of Slots and fails on an invalid or repeated slot.
func (f *Field) Restore(slots []Slot) error {
	for _, s := range slots {
		if s.Language == "" || s.Version <= 0 {
			return fmt.Errorf("%w: invalid slot (%q, %d) on field %q",
				ErrInvalidArgument, s.Language, s.Version, f.Name)
		}
		if f.values == nil {
			f.values = make(map[string]map[int]string)
		}
		versions, ok := f.values[s.Language]
		if !ok {
			versions = make(map[int]string)
			f.values[s.Language] = versions
		}
		if _, taken := versions[s.Version]; taken {
			return fmt.Errorf("%w: field %q already has version %d for language %q",
				ErrAlreadyExists, f.Name, s.Version, s.Language)
		}
		versions[s.Version] = s.Value
	}
	return nil
}
