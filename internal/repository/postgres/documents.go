package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/repository"
)

// DocumentStore implements repository.Persistence on the documents table.
// Each commit is a single statement guarded by the base version, so concurrent
// writers from any number of processes cannot lose each other's updates.
type DocumentStore struct{ db *DB }

var _ repository.Persistence = (*DocumentStore)(nil)

// NewDocumentStore constructs a document store.
func NewDocumentStore(db *DB) *DocumentStore { return &DocumentStore{db: db} }

// ReadAll selects the current body and version of a collection.
func (s *DocumentStore) ReadAll(ctx context.Context, collection string) (repository.Document, error) {
	const q = `SELECT body, version FROM documents WHERE name=$1`
	var doc repository.Document
	err := s.db.Pool.QueryRow(ctx, q, collection).Scan(&doc.Body, &doc.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Document{}, nil
		}
		return repository.Document{}, fmt.Errorf("read %s: %w", collection, err)
	}
	return doc, nil
}

// Commit inserts the first version or replaces the body if the version is unchanged.
func (s *DocumentStore) Commit(ctx context.Context, collection string, doc repository.Document) (int64, error) {
	if doc.Version == 0 {
		const ins = `INSERT INTO documents (name, body, version) VALUES ($1, $2, 1)`
		if _, err := s.db.Pool.Exec(ctx, ins, collection, doc.Body); err != nil {
			if isUniqueViolation(err) {
				return 0, errs.ErrVersionConflict
			}
			return 0, fmt.Errorf("commit %s: %w", collection, err)
		}
		return 1, nil
	}

	const upd = `
UPDATE documents
SET body = $2, version = version + 1, updated_at = now()
WHERE name = $1 AND version = $3`
	tag, err := s.db.Pool.Exec(ctx, upd, collection, doc.Body, doc.Version)
	if err != nil {
		return 0, fmt.Errorf("commit %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, errs.ErrVersionConflict
	}
	return doc.Version + 1, nil
}
