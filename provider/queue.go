package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/fakedb/id"
	"github.com/jacentio/fakedb/store"
)

// AddToPublishQueue buffers the item in the call's scope.
func (p *Provider) AddToPublishQueue(ctx context.Context, itemID id.ID, action string, date time.Time) (bool, error) {
	sc := scopeFrom(ctx)
	if sc == nil {
		return false, ErrNoScope
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.queue = append(sc.queue, PublishQueueItem{ItemID: itemID, Action: action, Date: date})
	return true, nil
}

// GetPublishQueue returns the identifiers queued between from and to,
// both inclusive, each once in the order first queued.
func (p *Provider) GetPublishQueue(ctx context.Context, from, to time.Time) []id.ID {
	sc := scopeFrom(ctx)
	if sc == nil {
		return nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	seen := make(map[id.ID]struct{})
	var out []id.ID
	for _, q := range sc.queue {
		if q.Date.Before(from) || q.Date.After(to) {
			continue
		}
		if _, dup := seen[q.ItemID]; dup {
			continue
		}
		seen[q.ItemID] = struct{}{}
		out = append(out, q.ItemID)
	}
	return out
}

// SetProperty stores a legacy property in the call's scope.
//
// Deprecated: properties are kept for hosts that still read them.
func (p *Provider) SetProperty(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: property name is required", store.ErrInvalidArgument)
	}
	sc := scopeFrom(ctx)
	if sc == nil {
		return ErrNoScope
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.properties[name] = value
	return nil
}

// GetProperty returns a legacy property from the call's scope.
//
// Deprecated: properties are kept for hosts that still read them.
func (p *Provider) GetProperty(ctx context.Context, name string) (string, bool) {
	sc := scopeFrom(ctx)
	if sc == nil {
		return "", false
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	v, ok := sc.properties[name]
	return v, ok
}
