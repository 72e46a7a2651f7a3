package store

import (
	"strings"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/internal/keys"
)

// SectionName is the name of the section created for templates.
const SectionName = "Data"

// signatureOf returns the template cache key of an item's field shape.
// Field names are compared without case.
func signatureOf(item *Item) string {
	names := item.fieldNames()
	for i, n := range names {
		names[i] = lowerName(n)
	}
	return keys.TemplateSignature(names)
}

// synthesizeTemplate builds a template declaring the item's non-standard
// fields, without values.
func synthesizeTemplate(item *Item, templateID id.ID) *Item {
	t := NewTemplate(item.Name, templateID)
	t.BaseIDs = []id.ID{id.StandardTemplate}
	for _, f := range item.fields {
		if isStandard(f) {
			continue
		}
		_ = t.AddField(f.cloneSchema())
	}
	return t
}

// templateFields returns the fields declared by templateID and its base
// templates, nearest first.
func (s *Storage) templateFields(templateID id.ID) []*Field {
	var out []*Field
	seen := make(map[id.ID]struct{})
	var walk func(tid id.ID)
	walk = func(tid id.ID) {
		if _, ok := seen[tid]; ok {
			return
		}
		seen[tid] = struct{}{}
		t, ok := s.items[tid]
		if !ok {
			return
		}
		out = append(out, t.fields...)
		for _, base := range t.BaseIDs {
			walk(base)
		}
	}
	walk(templateID)
	return out
}

// applyTemplate aligns the item's fields with its template: fields the
// template declares under another identifier are re-keyed by name, and
// empty types are inherited.
func (s *Storage) applyTemplate(item *Item) {
	declared := s.templateFields(item.TemplateID)
	if len(declared) == 0 {
		return
	}
	byID := make(map[id.ID]*Field, len(declared))
	for _, tf := range declared {
		byID[tf.ID] = tf
	}

	for _, f := range item.Fields() {
		tf, ok := byID[f.ID]
		if !ok {
			for _, candidate := range declared {
				if strings.EqualFold(candidate.Name, f.Name) {
					tf = candidate
					break
				}
			}
			if tf == nil {
				continue
			}
			item.rekeyField(f.ID, tf.ID)
		}
		if f.Type == "" {
			f.Type = tf.Type
		}
		if tf.Shared && !f.Shared {
			f.Shared = true
		}
	}
}

// buildTemplateTree adds a section child and one field definition item
// per declared field to template t, unless it already has a section.
// Only the standard template lists the built-in fields.
func (s *Storage) buildTemplateTree(t *Item) {
	for _, c := range s.children(t.ID) {
		if c.TemplateID == id.TemplateSection {
			return
		}
	}

	section := NewItemWithTemplate(SectionName, id.New(), id.TemplateSection)
	s.insertChild(t, section)

	for _, f := range t.fields {
		if isStandard(f) && t.ID != id.StandardTemplate {
			continue
		}
		fieldID := f.ID
		if _, taken := s.items[fieldID]; taken {
			fieldID = id.New()
		}
		def := NewItemWithTemplate(f.Name, fieldID, id.TemplateField)
		shared := ""
		if f.Shared {
			shared = "1"
		}
		for _, v := range []struct {
			fieldID id.ID
			name    string
			value   string
		}{
			{id.TemplateFieldType, "Type", f.Type},
			{id.TemplateFieldShared, "Shared", shared},
			{id.TemplateFieldSource, "Source", f.Source},
		} {
			df := &Field{ID: v.fieldID, Name: v.name, Shared: true}
			_ = df.AddVersion(s.config.DefaultLanguage, 1, v.value)
			_ = def.AddField(df)
		}
		s.insertChild(section, def)
	}
}

func (s *Storage) insertChild(parent, child *Item) {
	child.ParentID = parent.ID
	child.FullPath = parent.FullPath + "/" + lowerName(child.Name)
	if len(child.Languages()) == 0 {
		child.markVersion(s.config.DefaultLanguage, 1)
	}
	s.insert(child)
}
