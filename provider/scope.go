package provider

import (
	"context"
	"errors"
	"sync"
)

// ErrNoScope is returned when a buffered operation runs outside a scope
// created by NewScope.
var ErrNoScope = errors.New("provider: no execution scope")

// scope holds the per-execution buffers. It dies with its context.
type scope struct {
	mu         sync.Mutex
	queue      []PublishQueueItem
	properties map[string]string
}

type scopeKey struct{}

// NewScope returns a context owning a fresh publish queue and property
// bag. Nested scopes shadow the outer one.
func NewScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{properties: make(map[string]string)})
}

func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}
