package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jacentio/fakedb/id"
)

// Node is one item of an exported tree.
type Node struct {
	Item *Item
	// Children lists the registered children in order. Items whose
	// parent does not list them are appended in node order.
	Children []id.ID
	// Versions lists the versions present per language.
	Versions map[string][]int
}

// Export returns every registered item as a node, in insertion order.
// The items are the storage's own; callers must not mutate them.
func (s *Storage) Export() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]Node, 0, len(s.order))
	for _, oid := range s.order {
		item := s.items[oid]
		versions := make(map[string][]int)
		for _, lang := range item.Languages() {
			versions[lang] = item.Versions(lang)
		}
		nodes = append(nodes, Node{
			Item:     item,
			Children: item.ChildIDs(),
			Versions: versions,
		})
	}
	return nodes
}

// Rebuild creates a storage from exported nodes without seeding it. The
// nodes must form a consistent tree: unique identifiers, existing
// parents, and children pointing back at the node listing them.
func Rebuild(config Config, nodes []Node, blobs map[uuid.UUID][]byte) (*Storage, error) {
	config.validate()
	s := newEmpty(config)

	for _, n := range nodes {
		item := n.Item
		if item == nil || item.ID.IsNull() {
			return nil, fmt.Errorf("%w: node without identifier", ErrInvalidArgument)
		}
		if _, dup := s.items[item.ID]; dup {
			return nil, fmt.Errorf("%w: an item with the same id has already been added ('%s', '%s')",
				ErrAlreadyExists, item.ID, item.FullPath)
		}
		item.pending = nil
		item.childIDs = nil
		for lang, versions := range n.Versions {
			for _, v := range versions {
				if v > 0 {
					item.markVersion(lang, v)
				}
			}
		}
		s.items[item.ID] = item
		s.order = append(s.order, item.ID)
	}

	for _, n := range nodes {
		parent := s.items[n.Item.ID]
		for _, c := range n.Children {
			child, ok := s.items[c]
			if !ok {
				return nil, fmt.Errorf("%w: child %s of %s", ErrNotFound, c, parent.ID)
			}
			if child.ParentID != parent.ID {
				return nil, fmt.Errorf("%w: child %s of %s names parent %s",
					ErrInvalidArgument, c, parent.ID, child.ParentID)
			}
			parent.attachChild(c)
		}
	}

	for _, oid := range s.order {
		item := s.items[oid]
		if item.ParentID.IsNull() {
			continue
		}
		parent, ok := s.items[item.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w item %q was not found", ErrParentNotFound, item.ParentID.String())
		}
		parent.attachChild(item.ID)
		if item.IsTemplate && item.Generated {
			s.signatures[signatureOf(item)] = item.ID
		}
	}

	for bid, data := range blobs {
		s.blobs[bid] = append([]byte(nil), data...)
	}

	s.log.Debug("rebuilt storage", "items", len(s.items), "blobs", len(s.blobs))
	return s, nil
}

// Clone returns an independent deep copy of the storage.
func (s *Storage) Clone() *Storage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := newEmpty(s.config)
	for _, oid := range s.order {
		item := s.items[oid]
		copied := item.Clone(item.ID, item.Name)
		copied.ParentID = item.ParentID
		copied.FullPath = item.FullPath
		copied.Generated = item.Generated
		copied.childIDs = append([]id.ID(nil), item.childIDs...)
		c.items[oid] = copied
		c.order = append(c.order, oid)
	}
	for bid, data := range s.blobs {
		c.blobs[bid] = append([]byte(nil), data...)
	}
	for sig, tid := range s.signatures {
		c.signatures[sig] = tid
	}
	return c
}

// Upsert registers or replaces one exported node as is: its path,
// template and fields are taken from the node without synthesis. A
// replaced item keeps its registered children. The parent must already
// be registered unless the node is a root.
func (s *Storage) Upsert(n Node) error {
	item := n.Item
	if item == nil || item.ID.IsNull() {
		return fmt.Errorf("%w: node without identifier", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !item.ParentID.IsNull() {
		if _, ok := s.items[item.ParentID]; !ok {
			return fmt.Errorf("%w item %q was not found", ErrParentNotFound, item.ParentID.String())
		}
		if _, ok := s.items[item.ID]; ok {
			subtree := make(map[id.ID]struct{})
			s.collect(item.ID, subtree)
			if _, inside := subtree[item.ParentID]; inside {
				return fmt.Errorf("%w: cannot move %s under itself", ErrInvalidArgument, item.ID)
			}
		}
	}

	item.pending = nil
	item.childIDs = nil
	for lang, versions := range n.Versions {
		for _, v := range versions {
			if v > 0 {
				item.markVersion(lang, v)
			}
		}
	}

	if existing, ok := s.items[item.ID]; ok {
		item.childIDs = existing.childIDs
		if existing.ParentID != item.ParentID {
			if old, ok := s.items[existing.ParentID]; ok {
				old.detachChild(item.ID)
			}
		}
	}
	for _, c := range n.Children {
		if child, ok := s.items[c]; ok && child.ParentID == item.ID {
			item.attachChild(c)
		}
	}
	s.insert(item)
	if item.IsTemplate && item.Generated {
		s.signatures[signatureOf(item)] = item.ID
	}

	s.log.Debug("upserted item", "id", item.ID.String(), "path", item.FullPath)
	return nil
}
