// Package docstore implements the user and record repositories on top of a
// repository.Persistence, one JSON document per collection.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/repository"
)

// DefaultMaxAttempts bounds commit retries after a version conflict.
const DefaultMaxAttempts = 5

// Collection is a typed view over one persisted document holding a JSON array of T.
//
// Update is the only write path: it holds a per-collection mutex so writers in
// this process never interleave, and retries on errs.ErrVersionConflict so
// writers in other processes sharing the backend do not overwrite each other.
// Load takes no lock.
type Collection[T any] struct {
	store       repository.Persistence
	name        string
	maxAttempts int

	mu sync.Mutex
}

// NewCollection constructs a collection view; maxAttempts <= 0 means DefaultMaxAttempts.
func NewCollection[T any](store repository.Persistence, name string, maxAttempts int) *Collection[T] {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Collection[T]{store: store, name: name, maxAttempts: maxAttempts}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Load decodes the latest committed state.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	items, _, err := c.read(ctx)
	return items, err
}

func (c *Collection[T]) read(ctx context.Context) ([]T, int64, error) {
	doc, err := c.store.ReadAll(ctx, c.name)
	if err != nil {
		return nil, 0, err
	}
	var items []T
	if len(doc.Body) > 0 {
		if err := json.Unmarshal(doc.Body, &items); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", c.name, err)
		}
	}
	return items, doc.Version, nil
}

// Update runs a read-modify-write cycle. fn receives the current items and
// returns the full new slice; an error from fn aborts without committing.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		items, ver, err := c.read(ctx)
		if err != nil {
			return err
		}
		next, err := fn(items)
		if err != nil {
			return err
		}
		if next == nil {
			next = []T{}
		}
		body, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.name, err)
		}
		_, err = c.store.Commit(ctx, c.name, repository.Document{Body: body, Version: ver})
		if errors.Is(err, errs.ErrVersionConflict) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return err
	}
	return fmt.Errorf("%s: %d attempts: %w", c.name, c.maxAttempts, errs.ErrVersionConflict)
}
