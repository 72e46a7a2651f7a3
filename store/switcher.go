package store

import (
	"context"
	"fmt"
	"sync"
)

// switcher tracks the active storage per database name as a stack of
// scopes.
type switcher struct {
	mu     sync.Mutex
	scopes map[string][]*scope
}

type scope struct {
	storage *Storage
}

var active = &switcher{scopes: make(map[string][]*scope)}

// Enter makes s the active storage for its database name until the
// returned exit func runs. Scopes nest; exiting a scope that is not the
// innermost leaves the scopes entered after it active. Exit is
// idempotent.
func Enter(s *Storage) (exit func()) {
	if s == nil {
		return func() {}
	}
	sc := &scope{storage: s}
	name := s.Name()

	active.mu.Lock()
	active.scopes[name] = append(active.scopes[name], sc)
	active.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { active.leave(name, sc) })
	}
}

func (w *switcher) leave(name string, sc *scope) {
	w.mu.Lock()
	defer w.mu.Unlock()
	stack := w.scopes[name]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == sc {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(w.scopes, name)
		return
	}
	w.scopes[name] = stack
}

// Current returns the active storage for the database name, or nil.
func Current(name string) *Storage {
	active.mu.Lock()
	defer active.mu.Unlock()
	stack := active.scopes[name]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1].storage
}

// Active is like Current but returns ErrNoStorage when no storage is
// active for name.
func Active(name string) (*Storage, error) {
	if s := Current(name); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: database %q", ErrNoStorage, name)
}

type contextKey struct{}

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s *Storage) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the storage carried by ctx, or nil.
func FromContext(ctx context.Context) *Storage {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(contextKey{}).(*Storage)
	return s
}
