// Package memory is an in-process repository.Persistence for tests and ephemeral runs.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/repository"
)

// Store keeps committed documents in a map.
type Store struct {
	mu   sync.RWMutex
	docs map[string]repository.Document
}

var _ repository.Persistence = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{docs: map[string]repository.Document{}}
}

// ReadAll returns a copy of the committed document.
func (s *Store) ReadAll(_ context.Context, collection string) (repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.docs[collection]
	return repository.Document{Body: bytes.Clone(d.Body), Version: d.Version}, nil
}

// Commit replaces the document when doc.Version matches the stored version.
func (s *Store) Commit(_ context.Context, collection string, doc repository.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.docs[collection]
	if cur.Version != doc.Version {
		return 0, errs.ErrVersionConflict
	}
	next := repository.Document{Body: bytes.Clone(doc.Body), Version: cur.Version + 1}
	s.docs[collection] = next
	return next.Version, nil
}
