package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
)

// GetItemDefinition returns the definition of itemID, or nil when the
// item is missing, not readable, or no storage is available.
func (p *Provider) GetItemDefinition(ctx context.Context, itemID id.ID) *ItemDefinition {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil
	}
	item := s.GetFakeItem(itemID)
	if item == nil || !item.Access.CanRead {
		p.logger.Debug("item definition unavailable", "id", itemID.String())
		return nil
	}
	return &ItemDefinition{ID: item.ID, Name: item.Name, TemplateID: item.TemplateID, BranchID: item.BranchID}
}

// CreateItem registers a new item under parent. The new item starts with
// no versions.
func (p *Provider) CreateItem(ctx context.Context, itemID id.ID, name string, templateID id.ID, parent ItemDefinition) (bool, error) {
	if itemID.IsNull() || name == "" || templateID.IsNull() || parent.ID.IsNull() {
		return false, fmt.Errorf("%w: item id, name, template id and parent are required", store.ErrInvalidArgument)
	}
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	if owner := s.GetFakeItem(parent.ID); owner != nil && !owner.Access.CanCreate {
		return false, fmt.Errorf("%w: cannot create items under %s", store.ErrAccessDenied, parent.ID)
	}

	item := store.NewItemWithTemplate(name, itemID, templateID)
	item.ParentID = parent.ID
	if err := s.AddFakeItem(item); err != nil {
		return false, err
	}

	lang := s.Config().DefaultLanguage
	err = s.Update(itemID, func(i *store.Item) error {
		i.RemoveVersion(lang)
		return nil
	})
	return err == nil, err
}

// CopyItem registers a copy of source under destination with deep-copied
// field values.
func (p *Provider) CopyItem(ctx context.Context, source, destination ItemDefinition, copyName string, copyID id.ID) (bool, error) {
	if source.ID.IsNull() || destination.ID.IsNull() || copyName == "" || copyID.IsNull() {
		return false, fmt.Errorf("%w: source, destination, copy name and copy id are required", store.ErrInvalidArgument)
	}
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	if _, err := s.CopyItem(source.ID, destination.ID, copyName, copyID); err != nil {
		return false, fmt.Errorf("copy item %q: %w", copyName, err)
	}
	return true, nil
}

// MoveItem reparents the item under destination.
func (p *Provider) MoveItem(ctx context.Context, item, destination ItemDefinition) (bool, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	if err := s.MoveItem(item.ID, destination.ID); err != nil {
		return false, fmt.Errorf("move item: %w", err)
	}
	return true, nil
}

// DeleteItem removes the item and its descendants. It returns false when
// the item is missing.
func (p *Provider) DeleteItem(ctx context.Context, item ItemDefinition) (bool, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	return s.RemoveFakeItem(item.ID), nil
}

// ChangeTemplate points the item at target. Field values are kept as is.
func (p *Provider) ChangeTemplate(ctx context.Context, item ItemDefinition, target id.ID) (bool, error) {
	if target.IsNull() {
		return false, fmt.Errorf("%w: target template is required", store.ErrInvalidArgument)
	}
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	err = s.Update(item.ID, func(i *store.Item) error {
		i.TemplateID = target
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("change template: %w", err)
	}
	return true, nil
}

// AddVersion adds a version in base.Language copied from base.Version and
// returns the new version count.
func (p *Provider) AddVersion(ctx context.Context, item ItemDefinition, base VersionURI) (int, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.Update(item.ID, func(i *store.Item) error {
		var err error
		count, err = i.AddVersion(language(s, base.Language), base.Version)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add version: %w", err)
	}
	return count, nil
}

// RemoveVersion removes one language version. Version 0 removes the
// latest.
func (p *Provider) RemoveVersion(ctx context.Context, item ItemDefinition, version VersionURI) (bool, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	var removed bool
	err = s.Update(item.ID, func(i *store.Item) error {
		lang := language(s, version.Language)
		if version.Version == 0 {
			removed = i.RemoveVersion(lang)
		} else {
			removed = i.RemoveVersionNumber(lang, version.Version)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove version: %w", err)
	}
	return removed, nil
}

// GetItemVersions lists every language version of the item.
func (p *Provider) GetItemVersions(ctx context.Context, item ItemDefinition) ([]VersionURI, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil, err
	}
	i := s.GetFakeItem(item.ID)
	if i == nil {
		return nil, nil
	}
	var out []VersionURI
	for _, lang := range i.Languages() {
		for _, v := range i.Versions(lang) {
			out = append(out, VersionURI{Language: lang, Version: v})
		}
	}
	return out, nil
}

// GetItemFields returns the item's field values for one language
// version, including empty entries for every template field. It returns
// nil when the item is missing.
func (p *Provider) GetItemFields(ctx context.Context, item ItemDefinition, version VersionURI) (map[id.ID]string, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil, err
	}
	i := s.GetFakeItem(item.ID)
	if i == nil {
		return nil, nil
	}
	templateID := item.TemplateID
	if templateID.IsNull() {
		templateID = i.TemplateID
	}
	return s.BuildItemFieldList(i, templateID, language(s, version.Language), version.Version), nil
}

// SaveItem applies a rename and field changes. It returns false when the
// item is missing and, as hosts expect, also after a successful save.
func (p *Provider) SaveItem(ctx context.Context, item ItemDefinition, changes ItemChanges) (bool, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	current := s.GetFakeItem(item.ID)
	if current == nil {
		return false, nil
	}

	newName, rename := changes.Properties[PropertyName]
	if rename && !current.Access.CanRename {
		return false, fmt.Errorf("%w: cannot rename %s", store.ErrAccessDenied, item.ID)
	}
	if changes.HasFieldsChanged() && !current.Access.CanWrite {
		return false, fmt.Errorf("%w: cannot write %s", store.ErrAccessDenied, item.ID)
	}

	if rename && newName != "" {
		if err := s.RenameItem(item.ID, newName); err != nil {
			return false, fmt.Errorf("rename item: %w", err)
		}
	}
	if changes.HasFieldsChanged() {
		err := s.Update(item.ID, func(i *store.Item) error {
			for _, change := range changes.FieldChanges {
				f := i.Field(change.FieldID)
				if f == nil {
					f = store.NewFieldWithID(change.FieldID)
					if err := i.AddField(f); err != nil {
						return err
					}
				}
				if err := f.Set(language(s, change.Language), change.Version, change.Value); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return false, fmt.Errorf("save fields: %w", err)
		}
	}
	return false, nil
}

// GetParentID returns the parent of the item, or Null for the root and
// for missing items.
func (p *Provider) GetParentID(ctx context.Context, item ItemDefinition) (id.ID, error) {
	if item.ID == id.RootItem {
		return id.Null, nil
	}
	s, err := p.Storage(ctx)
	if err != nil {
		return id.Null, err
	}
	if i := s.GetFakeItem(item.ID); i != nil {
		return i.ParentID, nil
	}
	return id.Null, nil
}

// GetChildIDs returns the item's children in order.
func (p *Provider) GetChildIDs(ctx context.Context, item ItemDefinition) ([]id.ID, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil, err
	}
	var out []id.ID
	for _, c := range s.Children(item.ID) {
		out = append(out, c.ID)
	}
	return out, nil
}

// ResolvePath returns the identifier of the item at itemPath, or Null.
func (p *Provider) ResolvePath(ctx context.Context, itemPath string) (id.ID, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return id.Null, err
	}
	resolved, ok := s.ResolvePath(itemPath)
	if !ok {
		p.logger.Debug("path not resolved", "path", itemPath)
		return id.Null, nil
	}
	return resolved, nil
}

// SelectSingleID returns the first item matching query, or Null.
func (p *Provider) SelectSingleID(ctx context.Context, query string) (id.ID, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return id.Null, err
	}
	if item := s.SelectSingle(stripFast(query)); item != nil {
		return item.ID, nil
	}
	return id.Null, nil
}

// SelectIDs returns every item matching query.
func (p *Provider) SelectIDs(ctx context.Context, query string) ([]id.ID, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil, err
	}
	var out []id.ID
	for _, item := range s.Select(stripFast(query)) {
		out = append(out, item.ID)
	}
	return out, nil
}

func stripFast(query string) string {
	return strings.ReplaceAll(query, store.FastPrefix, "")
}

// GetBlobStream returns a fresh reader over the blob, or nil.
func (p *Provider) GetBlobStream(ctx context.Context, blobID uuid.UUID) (*bytes.Reader, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetBlobStream(blobID), nil
}

// SetBlobStream stores the content of r under blobID.
func (p *Provider) SetBlobStream(ctx context.Context, r io.Reader, blobID uuid.UUID) (bool, error) {
	s, err := p.Storage(ctx)
	if err != nil {
		return false, err
	}
	if err := s.SetBlobStream(blobID, r); err != nil {
		return false, err
	}
	return true, nil
}

// GetLanguages returns no languages; language enumeration belongs to the
// host.
func (p *Provider) GetLanguages(ctx context.Context) []string {
	return []string{}
}
