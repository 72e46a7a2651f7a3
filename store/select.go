package store

import (
	"strings"

	"github.com/jacentio/fakedb/id"
)

// FastPrefix marks queries the host wants answered without the item cache.
// Select treats them like any other query.
const FastPrefix = "fast:"

type axis int

const (
	axisSelf axis = iota
	axisChildren
	axisDescendants
)

type predicate struct {
	attr  string
	field bool
	value string
}

// Select answers a minimal query: an identifier or a path, optionally
// followed by "/*" (children) or "//*" (descendants), and at most one
// predicate of the form [@@name='x'], [@@templateid='{...}'] or
// [@Field='x']. Unsupported queries select nothing.
func (s *Storage) Select(query string) []*Item {
	base, ax, pred, ok := parseQuery(query)
	if !ok {
		return nil
	}
	rootID, found := s.ResolvePath(base)
	if !found {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*Item
	switch ax {
	case axisSelf:
		if item, ok := s.items[rootID]; ok {
			candidates = []*Item{item}
		}
	case axisChildren:
		candidates = s.children(rootID)
	case axisDescendants:
		candidates = s.descendants(rootID)
	}

	if pred == nil {
		return candidates
	}
	var out []*Item
	for _, item := range candidates {
		if pred.match(item, s.config.DefaultLanguage) {
			out = append(out, item)
		}
	}
	return out
}

// SelectSingle returns the first item Select finds, or nil.
func (s *Storage) SelectSingle(query string) *Item {
	items := s.Select(query)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// descendants returns the subtree below itemID in depth-first order.
func (s *Storage) descendants(itemID id.ID) []*Item {
	var out []*Item
	for _, c := range s.children(itemID) {
		out = append(out, c)
		out = append(out, s.descendants(c.ID)...)
	}
	return out
}

func parseQuery(query string) (string, axis, *predicate, bool) {
	q := strings.TrimSpace(query)
	q = strings.TrimPrefix(q, FastPrefix)
	q = strings.TrimSpace(q)

	var pred *predicate
	if strings.HasSuffix(q, "]") {
		open := strings.LastIndex(q, "[")
		if open < 0 {
			return "", axisSelf, nil, false
		}
		p, ok := parsePredicate(q[open+1 : len(q)-1])
		if !ok {
			return "", axisSelf, nil, false
		}
		pred = p
		q = q[:open]
	}

	ax := axisSelf
	switch {
	case strings.HasSuffix(q, "//*"):
		ax = axisDescendants
		q = strings.TrimSuffix(q, "//*")
	case strings.HasSuffix(q, "/*"):
		ax = axisChildren
		q = strings.TrimSuffix(q, "/*")
	}
	if q == "" || strings.ContainsAny(q, "*[]") {
		return "", axisSelf, nil, false
	}
	return q, ax, pred, true
}

func parsePredicate(expr string) (*predicate, bool) {
	name, value, ok := strings.Cut(strings.TrimSpace(expr), "=")
	if !ok {
		return nil, false
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if len(value) < 2 || value[0] != value[len(value)-1] || (value[0] != '\'' && value[0] != '"') {
		return nil, false
	}
	value = value[1 : len(value)-1]

	switch {
	case strings.HasPrefix(name, "@@"):
		attr := strings.ToLower(name[2:])
		if attr != "name" && attr != "templateid" && attr != "id" {
			return nil, false
		}
		return &predicate{attr: attr, value: value}, true
	case strings.HasPrefix(name, "@"):
		attr := strings.Trim(name[1:], "#")
		if attr == "" {
			return nil, false
		}
		return &predicate{attr: attr, field: true, value: value}, true
	}
	return nil, false
}

func (p *predicate) match(item *Item, language string) bool {
	if p.field {
		f := item.FieldByName(p.attr)
		return f != nil && f.Value(language) == p.value
	}
	switch p.attr {
	case "name":
		return strings.EqualFold(item.Name, p.value)
	case "templateid":
		v, err := id.Parse(p.value)
		return err == nil && item.TemplateID == v
	case "id":
		v, err := id.Parse(p.value)
		return err == nil && item.ID == v
	}
	return false
}
