// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// Collection names used by the service.
const (
	CollectionUsers   = "users"
	CollectionRecords = "diagnosis_records"
)

// Document is the whole committed state of one collection.
type Document struct {
	Body    []byte // JSON; nil when the collection was never committed
	Version int64  // 0 when the collection was never committed
}

// Persistence stores whole documents with version-checked replacement.
type Persistence interface {
	// ReadAll loads the latest committed document of a collection.
	ReadAll(ctx context.Context, collection string) (Document, error)
	// Commit atomically replaces the document if the stored version still equals
	// doc.Version, returning the new version. A stale base yields errs.ErrVersionConflict.
	Commit(ctx context.Context, collection string, doc Document) (int64, error)
}
