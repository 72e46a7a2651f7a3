// Package provider exposes a store.Storage through the CRUD and query
// protocol a host content-access layer expects.
//
// A Provider holds no item state. Each call resolves its storage from,
// in order: the storage given to New, the storage carried by the call's
// context (store.NewContext), and the storage active for the provider's
// database name (store.Enter). Publish queue entries and legacy
// properties are buffered in a scope created by NewScope.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacentio/fakedb/store"
)

// Provider translates host protocol verbs into storage operations.
type Provider struct {
	database string
	storage  *store.Storage
	logger   *slog.Logger
}

// New creates a provider for the named database. storage may be nil, in
// which case every call resolves it from the context or the ambient
// switcher.
func New(database string, storage *store.Storage, logger *slog.Logger) *Provider {
	if database == "" {
		database = store.DefaultDatabase
		if storage != nil {
			database = storage.Name()
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		database: database,
		storage:  storage,
		logger:   logger.With("database", database),
	}
}

// Database returns the database name the provider serves.
func (p *Provider) Database() string {
	return p.database
}

// Storage returns the storage serving the call.
func (p *Provider) Storage(ctx context.Context) (*store.Storage, error) {
	if p.storage != nil {
		return p.storage, nil
	}
	if s := store.FromContext(ctx); s != nil {
		return s, nil
	}
	if s := store.Current(p.database); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: database %q", store.ErrNoStorage, p.database)
}

// language returns lang, or the storage's default language when empty.
func language(s *store.Storage, lang string) string {
	if lang == "" {
		return s.Config().DefaultLanguage
	}
	return lang
}
