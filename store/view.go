package store

import "github.com/jacentio/fakedb/id"

// ItemView is a registered item resolved for one language and version.
type ItemView struct {
	ID         id.ID
	Name       string
	TemplateID id.ID
	ParentID   id.ID
	FullPath   string
	Language   string
	Version    int
	Fields     map[id.ID]string
}

// BuildItemFieldList maps every field declared by templateID and its base
// templates to its standard value, then overlays the item's stored values
// for language and version (0 meaning the latest). A template field's
// standard value is its latest value in language, falling back to
// DefaultLanguage, or "".
func (s *Storage) BuildItemFieldList(item *Item, templateID id.ID, language string, version int) map[id.ID]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildFieldList(item, templateID, language, version)
}

func (s *Storage) buildFieldList(item *Item, templateID id.ID, language string, version int) map[id.ID]string {
	out := make(map[id.ID]string)
	for _, f := range s.templateFields(templateID) {
		if _, nearer := out[f.ID]; !nearer {
			out[f.ID] = standardValue(f, language)
		}
	}
	if item == nil {
		return out
	}
	if version == 0 {
		version = item.Latest(language)
	}
	for _, f := range item.fields {
		value, ok := f.lookup(language, version)
		if _, declared := out[f.ID]; ok || !declared {
			out[f.ID] = value
		}
	}
	return out
}

func standardValue(f *Field, language string) string {
	if value, ok := f.lookup(language, 0); ok {
		return value
	}
	value, _ := f.lookup(DefaultLanguage, 0)
	return value
}

// GetSitecoreItem returns the latest version of the item in language, or
// nil when the item is not registered.
func (s *Storage) GetSitecoreItem(itemID id.ID, language string) *ItemView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil
	}
	if language == "" {
		language = s.config.DefaultLanguage
	}
	version := item.Latest(language)
	return &ItemView{
		ID:         item.ID,
		Name:       item.Name,
		TemplateID: item.TemplateID,
		ParentID:   item.ParentID,
		FullPath:   item.FullPath,
		Language:   language,
		Version:    version,
		Fields:     s.buildFieldList(item, item.TemplateID, language, version),
	}
}
