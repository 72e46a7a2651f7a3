package fixture

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
)

// Build creates a storage named by the tree and applies the tree to it.
func Build(tree *Tree) (*store.Storage, error) {
	s := store.New(store.Config{Name: tree.Database, DefaultLanguage: tree.Language})
	if err := Apply(s, tree); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply registers the items and blobs of tree in s. Each top-level item
// is registered as one unit; items registered before a failing one stay
// in s.
func Apply(s *store.Storage, tree *Tree) error {
	lang := s.Config().DefaultLanguage
	for i, decl := range tree.Items {
		item, err := build(decl, lang, true)
		if err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
		if decl.Parent != "" {
			parentID, ok := s.ResolvePath(decl.Parent)
			if !ok || s.GetFakeItem(parentID) == nil {
				return fmt.Errorf("items[%d]: %w: %q", i, store.ErrParentNotFound, decl.Parent)
			}
			item.ParentID = parentID
		}
		if err := s.AddFakeItem(item); err != nil {
			return fmt.Errorf("items[%d] %q: %w", i, decl.Name, err)
		}
	}

	for i, b := range tree.Blobs {
		blobID, data, err := blob(b)
		if err != nil {
			return fmt.Errorf("blobs[%d]: %w", i, err)
		}
		s.SetBlob(blobID, data)
	}
	return nil
}

// build converts a declaration and its children into detached items.
func build(decl Item, lang string, top bool) (*store.Item, error) {
	if decl.Parent != "" && !top {
		return nil, fmt.Errorf("%w: parent is only allowed on top-level items", store.ErrInvalidArgument)
	}

	itemID := id.New()
	if decl.ID != "" {
		v, err := id.Parse(decl.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: item id %q: %w", store.ErrInvalidArgument, decl.ID, err)
		}
		itemID = v
	}
	templateID := id.Null
	if decl.Template != "" {
		v, err := id.Parse(decl.Template)
		if err != nil {
			return nil, fmt.Errorf("%w: template id %q: %w", store.ErrInvalidArgument, decl.Template, err)
		}
		templateID = v
	}
	item := store.NewItemWithTemplate(decl.Name, itemID, templateID)

	for _, name := range sortedKeys(decl.Fields) {
		if err := setField(item, name, lang, 1, decl.Fields[name]); err != nil {
			return nil, err
		}
	}
	for _, v := range decl.Versions {
		version := v.Version
		if version == 0 {
			version = 1
		}
		if v.Language == "" || version < 0 {
			return nil, fmt.Errorf("%w: version needs a language and a positive number", store.ErrInvalidArgument)
		}
		for item.Latest(v.Language) < version {
			if _, err := item.AddVersion(v.Language, 0); err != nil {
				return nil, err
			}
		}
		for _, name := range sortedKeys(v.Fields) {
			if err := setField(item, name, v.Language, version, v.Fields[name]); err != nil {
				return nil, err
			}
		}
	}

	if a := decl.Access; a != nil {
		setGate(&item.Access.CanRead, a.Read)
		setGate(&item.Access.CanWrite, a.Write)
		setGate(&item.Access.CanCreate, a.Create)
		setGate(&item.Access.CanRename, a.Rename)
	}

	for _, c := range decl.Children {
		child, err := build(c, lang, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", decl.Name, err)
		}
		if err := item.AddChild(child); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func setField(item *store.Item, name, lang string, version int, value string) error {
	f := item.FieldByName(name)
	if f == nil {
		f = store.NewField(name)
		if err := item.AddField(f); err != nil {
			return err
		}
	}
	return f.Set(lang, version, value)
}

func setGate(gate *bool, v *bool) {
	if v != nil {
		*gate = *v
	}
}

func blob(b Blob) (uuid.UUID, []byte, error) {
	blobID, err := uuid.Parse(b.ID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: blob id %q: %w", store.ErrInvalidArgument, b.ID, err)
	}
	switch {
	case b.Text != "" && b.Base64 != "":
		return uuid.Nil, nil, fmt.Errorf("%w: blob %s sets both text and base64", store.ErrInvalidArgument, b.ID)
	case b.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(b.Base64)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("%w: blob %s: %w", store.ErrInvalidArgument, b.ID, err)
		}
		return blobID, data, nil
	}
	return blobID, []byte(b.Text), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
