package provider

import (
	"context"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
)

// GetTemplateItemIDs returns the identifiers of every template, or none
// when no storage is available.
func (p *Provider) GetTemplateItemIDs(ctx context.Context) []id.ID {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil
	}
	var out []id.ID
	for _, t := range s.GetFakeTemplates() {
		out = append(out, t.ID)
	}
	return out
}

// GetTemplates describes every template, or none when no storage is
// available.
func (p *Provider) GetTemplates(ctx context.Context) []TemplateDefinition {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil
	}
	var out []TemplateDefinition
	for _, t := range s.GetFakeTemplates() {
		out = append(out, buildTemplate(s, t))
	}
	return out
}

// buildTemplate describes t with its first section child, or a fresh
// "Data" section. Built-in fields are listed by the standard template
// only.
func buildTemplate(s *store.Storage, t *store.Item) TemplateDefinition {
	section := TemplateSection{ID: id.New(), Name: store.SectionName}
	for _, c := range s.Children(t.ID) {
		if c.TemplateID == id.TemplateSection {
			section.ID, section.Name = c.ID, c.Name
			break
		}
	}

	for _, f := range t.Fields() {
		if t.ID != id.StandardTemplate && (store.IsStandardField(f.ID) || store.IsStandardFieldName(f.Name)) {
			continue
		}
		section.Fields = append(section.Fields, TemplateField{
			ID:     f.ID,
			Name:   f.Name,
			Shared: f.Shared,
			Type:   f.Type,
			Source: f.Source,
		})
	}

	def := TemplateDefinition{ID: t.ID, Name: t.Name, Section: section}
	if t.ID != id.StandardTemplate {
		def.BaseIDs = append([]id.ID(nil), t.BaseIDs...)
		if len(def.BaseIDs) == 0 {
			def.BaseIDs = []id.ID{id.StandardTemplate}
		}
	}
	return def
}
