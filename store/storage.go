package store

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jacentio/fakedb/id"
)

// Storage is an in-memory content database. It is safe for concurrent
// use; items it hands out are not, and callers mutating a registered
// item should do so through [Storage.Update].
type Storage struct {
	mu     sync.RWMutex
	config Config
	log    *slog.Logger

	items      map[id.ID]*Item
	order      []id.ID
	blobs      map[uuid.UUID][]byte
	signatures map[string]id.ID
}

// New creates a storage seeded with the default tree.
func New(config Config) *Storage {
	config.validate()
	s := newEmpty(config)
	s.seed()
	return s
}

func newEmpty(config Config) *Storage {
	return &Storage{
		config:     config,
		log:        config.Logger.With("database", config.Name),
		items:      make(map[id.ID]*Item),
		blobs:      make(map[uuid.UUID][]byte),
		signatures: make(map[string]id.ID),
	}
}

// Name returns the database name.
func (s *Storage) Name() string {
	return s.config.Name
}

// Config returns the storage configuration.
func (s *Storage) Config() Config {
	return s.config
}

// registration is one planned insert of an AddFakeItem call.
type registration struct {
	item     *Item
	parentID id.ID
	path     string

	// template is synthesized and registered before item when set.
	template *Item
	// signature caches template when non-empty.
	signature string
	// templateID is the resolved template when template is nil.
	templateID id.ID
}

// AddFakeItem registers item and its declared children. Parent defaults
// to the content root, or the template root for templates. Every
// registration error is detected before anything is mutated.
func (s *Storage) AddFakeItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[item.ID]; ok && existing == item {
		return nil
	}

	plan, err := s.plan(item)
	if err != nil {
		return err
	}
	s.commit(plan)
	return nil
}

// plan validates the subtree rooted at item and resolves parents, paths
// and templates without touching the index.
func (s *Storage) plan(root *Item) ([]*registration, error) {
	parentID := root.ParentID
	if parentID.IsNull() {
		parentID = id.ContentRoot
		if root.IsTemplate {
			parentID = id.TemplateRoot
		}
	}
	parent, ok := s.items[parentID]
	if !ok {
		return nil, fmt.Errorf("%w item %q was not found", ErrParentNotFound, parentID.String())
	}

	p := &planner{
		s:          s,
		planned:    make(map[id.ID]*registration),
		signatures: make(map[string]*Item),
	}
	if err := p.walk(root, parentID, parent.FullPath); err != nil {
		return nil, err
	}
	return p.out, nil
}

type planner struct {
	s          *Storage
	out        []*registration
	planned    map[id.ID]*registration
	signatures map[string]*Item
}

func (p *planner) walk(item *Item, parentID id.ID, parentPath string) error {
	if item.ID.IsNull() {
		item.ID = id.New()
	}
	if item.Name == "" {
		item.Name = item.ID.Short()
	}
	itemPath := parentPath + "/" + lowerName(item.Name)

	if err := p.checkID(item, itemPath); err != nil {
		return err
	}

	r := &registration{item: item, parentID: parentID, path: itemPath}
	p.planned[item.ID] = r
	p.out = append(p.out, r)

	if err := p.resolveTemplate(r); err != nil {
		return err
	}

	for _, child := range item.pending {
		if child == nil {
			continue
		}
		if existing, ok := p.s.items[child.ID]; ok && existing == child {
			continue
		}
		if err := p.walk(child, item.ID, itemPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) checkID(item *Item, itemPath string) error {
	var existing *Item
	if e, ok := p.s.items[item.ID]; ok && e != item {
		existing = e
	} else if r, ok := p.planned[item.ID]; ok && r.item != item {
		existing = r.item
	}
	if existing == nil {
		return nil
	}
	if existing.IsTemplate && item.IsTemplate {
		return fmt.Errorf("%w: a template with the same id has already been added ('%s', '%s')",
			ErrAlreadyExists, item.ID, item.Name)
	}
	return fmt.Errorf("%w: an item with the same id has already been added ('%s', '%s')",
		ErrAlreadyExists, item.ID, itemPath)
}

// lookup finds an item registered or planned in the current call.
func (p *planner) lookup(itemID id.ID) (*Item, string, bool) {
	if e, ok := p.s.items[itemID]; ok {
		return e, e.FullPath, true
	}
	if r, ok := p.planned[itemID]; ok {
		return r.item, r.path, true
	}
	return nil, "", false
}

func (p *planner) resolveTemplate(r *registration) error {
	item := r.item
	if item.IsTemplate {
		r.templateID = item.TemplateID
		if r.templateID.IsNull() {
			r.templateID = id.TemplateTemplate
		}
		return nil
	}

	if !item.TemplateID.IsNull() {
		t, existingPath, ok := p.lookup(item.TemplateID)
		switch {
		case ok && t.IsTemplate:
			r.templateID = t.ID
		case ok:
			return fmt.Errorf("%w: unable to create the item based on the template '%s': an item with the same id has already been added ('%s')",
				ErrAlreadyExists, item.TemplateID, existingPath)
		default:
			r.template = synthesizeTemplate(item, item.TemplateID)
			r.templateID = item.TemplateID
			p.planned[r.templateID] = &registration{item: r.template}
		}
		return nil
	}

	signature := signatureOf(item)
	if t, ok := p.signatures[signature]; ok {
		r.templateID = t.ID
		return nil
	}
	if tid, ok := p.s.signatures[signature]; ok {
		if t, ok := p.s.items[tid]; ok && t.IsTemplate {
			r.templateID = tid
			return nil
		}
	}

	t := synthesizeTemplate(item, id.New())
	t.Generated = true
	r.template = t
	r.templateID = t.ID
	r.signature = signature
	p.signatures[signature] = t
	return nil
}

// commit applies a validated plan. Declared templates get their tree
// once their declared children are in place.
func (s *Storage) commit(plan []*registration) {
	var templates []*Item
	for _, r := range plan {
		if r.template != nil {
			s.registerTemplate(r.template, id.TemplateRoot)
			if r.signature != "" {
				s.signatures[r.signature] = r.template.ID
			}
			s.log.Debug("synthesized template",
				"template_id", r.template.ID.String(),
				"name", r.template.Name,
				"generated", r.template.Generated)
		}

		item := r.item
		item.ParentID = r.parentID
		item.FullPath = r.path
		item.TemplateID = r.templateID
		item.pending = nil
		item.childIDs = nil

		if item.IsTemplate {
			if len(item.BaseIDs) == 0 && item.ID != id.StandardTemplate {
				item.BaseIDs = []id.ID{id.StandardTemplate}
			}
		} else {
			s.applyTemplate(item)
		}
		if len(item.Languages()) == 0 {
			item.markVersion(s.config.DefaultLanguage, 1)
		}
		s.insert(item)
		if item.IsTemplate {
			templates = append(templates, item)
		}

		s.log.Debug("registered item",
			"id", item.ID.String(),
			"path", item.FullPath,
			"template_id", item.TemplateID.String())
	}
	for _, t := range templates {
		s.buildTemplateTree(t)
	}
}

// insert indexes item and attaches it to its parent.
func (s *Storage) insert(item *Item) {
	if _, ok := s.items[item.ID]; !ok {
		s.order = append(s.order, item.ID)
	}
	s.items[item.ID] = item
	if parent, ok := s.items[item.ParentID]; ok && item.ParentID != item.ID {
		parent.attachChild(item.ID)
	}
}

func (s *Storage) registerTemplate(t *Item, parentID id.ID) {
	t.ParentID = parentID
	if parent, ok := s.items[parentID]; ok {
		t.FullPath = parent.FullPath + "/" + lowerName(t.Name)
	}
	if len(t.Languages()) == 0 {
		t.markVersion(s.config.DefaultLanguage, 1)
	}
	s.insert(t)
	s.buildTemplateTree(t)
}

// RemoveFakeItem removes the item and all its descendants. It returns
// false when the item is not registered.
func (s *Storage) RemoveFakeItem(itemID id.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return false
	}
	if parent, ok := s.items[item.ParentID]; ok {
		parent.detachChild(itemID)
	}

	removed := make(map[id.ID]struct{})
	s.collect(itemID, removed)
	for rid := range removed {
		if r, ok := s.items[rid]; ok {
			r.childIDs = nil
		}
		delete(s.items, rid)
	}
	kept := s.order[:0]
	for _, oid := range s.order {
		if _, gone := removed[oid]; !gone {
			kept = append(kept, oid)
		}
	}
	s.order = kept
	for sig, tid := range s.signatures {
		if _, gone := removed[tid]; gone {
			delete(s.signatures, sig)
		}
	}

	s.log.Debug("removed item", "id", itemID.String(), "count", len(removed))
	return true
}

// collect adds itemID and its transitive descendants to into.
func (s *Storage) collect(itemID id.ID, into map[id.ID]struct{}) {
	if _, seen := into[itemID]; seen {
		return
	}
	into[itemID] = struct{}{}
	if item, ok := s.items[itemID]; ok {
		for _, c := range item.childIDs {
			s.collect(c, into)
		}
	}
}

// GetFakeItem returns the item registered under itemID, or nil.
func (s *Storage) GetFakeItem(itemID id.ID) *Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[itemID]
}

// GetFakeItems returns every registered item in insertion order.
func (s *Storage) GetFakeItems() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Item, 0, len(s.order))
	for _, oid := range s.order {
		out = append(out, s.items[oid])
	}
	return out
}

// GetFakeTemplates returns every registered template in insertion order.
func (s *Storage) GetFakeTemplates() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Item
	for _, oid := range s.order {
		if item := s.items[oid]; item.IsTemplate {
			out = append(out, item)
		}
	}
	return out
}

// Children returns the registered children of itemID in order.
func (s *Storage) Children(itemID id.ID) []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.children(itemID)
}

func (s *Storage) children(itemID id.ID) []*Item {
	item, ok := s.items[itemID]
	if !ok {
		return nil
	}
	out := make([]*Item, 0, len(item.childIDs))
	for _, c := range item.childIDs {
		if child, ok := s.items[c]; ok {
			out = append(out, child)
		}
	}
	return out
}

// Update runs fn with the write lock held on the registered item. fn must
// not call back into the storage.
func (s *Storage) Update(itemID id.ID, fn func(*Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return fn(item)
}

// RenameItem changes the item's name and corrects the last segment of its
// path. Descendant paths are left as they are.
func (s *Storage) RenameItem(itemID id.ID, name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	return s.Update(itemID, func(item *Item) error {
		item.Name = name
		if item.FullPath != "" {
			item.FullPath = strings.TrimSuffix(path.Dir(item.FullPath), "/") + "/" + lowerName(name)
		}
		return nil
	})
}

// MoveItem reparents the item under destination. Cached paths of the
// moved subtree are not recomputed.
func (s *Storage) MoveItem(itemID, destination id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	dest, ok := s.items[destination]
	if !ok {
		return fmt.Errorf("%w: destination %s", ErrNotFound, destination)
	}
	subtree := make(map[id.ID]struct{})
	s.collect(itemID, subtree)
	if _, inside := subtree[destination]; inside {
		return fmt.Errorf("%w: cannot move %s under itself", ErrInvalidArgument, itemID)
	}

	if parent, ok := s.items[item.ParentID]; ok {
		parent.detachChild(itemID)
	}
	item.ParentID = destination
	dest.attachChild(itemID)
	return nil
}

// CopyItem registers a copy of source under destination with the given
// name and identifier. Field values are deep-copied; children are not.
func (s *Storage) CopyItem(source, destination id.ID, name string, copyID id.ID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.items[source]
	if !ok {
		return nil, fmt.Errorf("%w: source %s", ErrNotFound, source)
	}
	dest, ok := s.items[destination]
	if !ok {
		return nil, fmt.Errorf("%w: destination %s", ErrNotFound, destination)
	}
	if copyID.IsNull() {
		copyID = id.New()
	}
	if name == "" {
		name = src.Name
	}
	if existing, ok := s.items[copyID]; ok {
		return nil, fmt.Errorf("%w: an item with the same id has already been added ('%s', '%s')",
			ErrAlreadyExists, copyID, existing.FullPath)
	}

	c := src.Clone(copyID, name)
	c.ParentID = destination
	c.FullPath = dest.FullPath + "/" + lowerName(name)
	s.insert(c)
	return c, nil
}

// ResolvePath returns the identifier of the item at path, ignoring case
// and one trailing slash. An identifier string resolves to itself.
func (s *Storage) ResolvePath(p string) (id.ID, bool) {
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return id.Null, false
	}
	if v, err := id.Parse(p); err == nil {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, oid := range s.order {
		if strings.EqualFold(s.items[oid].FullPath, p) {
			return oid, true
		}
	}
	return id.Null, false
}

// lowerName lower-cases a path segment.
func lowerName(name string) string {
	return cases.Lower(language.Und).String(name)
}
