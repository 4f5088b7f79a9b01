// Package document stores the latest text of the documents open in the editor.
package document

import (
	"context"
	"sync"

	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"github.com/importjs/importjs-bridge/src/bridge/model"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
)

// Repository keeps one Document per URI.
type Repository interface {
	Get(ctx context.Context, uri protocol.DocumentURI) (entity.Document, error)
	Set(ctx context.Context, doc entity.Document) error
	Delete(ctx context.Context, uri protocol.DocumentURI) error
	DocumentCount(ctx context.Context) (int, error)
}

type repository struct {
	mu       sync.Mutex
	memstore map[protocol.DocumentURI]model.Document
	stats    tally.Scope
}

// New returns a repository to a key-value Document data store.
func New(stats tally.Scope) Repository {
	return &repository{
		memstore: make(map[protocol.DocumentURI]model.Document),
		stats:    stats,
	}
}

// Get returns the Document stored under uri.
func (r *repository) Get(ctx context.Context, uri protocol.DocumentURI) (entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.memstore[uri]
	if !ok {
		return entity.Document{}, &errors.DocumentNotFoundError{URI: uri}
	}
	return mapper.ModelToDocument(uri, d), nil
}

// Set replaces the Document stored under its URI.
func (r *repository) Set(ctx context.Context, doc entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.URI == "" {
		return errors.New("can't save document without uri")
	}
	r.memstore[doc.URI] = mapper.DocumentToModel(doc)
	r.stats.Gauge("open_documents").Update(float64(len(r.memstore)))
	return nil
}

// Delete removes the Document stored under uri.
func (r *repository) Delete(ctx context.Context, uri protocol.DocumentURI) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.memstore, uri)
	r.stats.Gauge("open_documents").Update(float64(len(r.memstore)))
	return nil
}

// DocumentCount returns the number of open documents.
func (r *repository) DocumentCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore), nil
}
