// Package filestore implements repository.Persistence as one JSON file per collection.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/repository"
)

// envelope is the on-disk layout of a collection file.
type envelope struct {
	Version int64           `json:"version"`
	Body    json.RawMessage `json:"body"`
}

// Store keeps <dir>/<collection>.json files. Commits write a temp file and
// rename it over the previous one, so readers see either the old or the new
// document and a crash mid-write leaves the last commit intact.
// The version check is only guarded within this process.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ repository.Persistence = (*Store)(nil)

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\.`) {
		return "", fmt.Errorf("filestore: bad collection %q: %w", collection, errs.ErrValidation)
	}
	return filepath.Join(s.dir, collection+".json"), nil
}

// ReadAll loads the committed document; a missing file is an empty collection.
func (s *Store) ReadAll(_ context.Context, collection string) (repository.Document, error) {
	p, err := s.path(collection)
	if err != nil {
		return repository.Document{}, err
	}
	return read(p)
}

func read(p string) (repository.Document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.Document{}, nil
		}
		return repository.Document{}, fmt.Errorf("filestore: read: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return repository.Document{}, fmt.Errorf("filestore: decode %s: %w", filepath.Base(p), err)
	}
	return repository.Document{Body: env.Body, Version: env.Version}, nil
}

// Commit replaces the file if doc.Version matches the version on disk.
func (s *Store) Commit(_ context.Context, collection string, doc repository.Document) (int64, error) {
	p, err := s.path(collection)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := read(p)
	if err != nil {
		return 0, err
	}
	if cur.Version != doc.Version {
		return 0, errs.ErrVersionConflict
	}

	body := doc.Body
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	next := envelope{Version: cur.Version + 1, Body: body}
	b, err := json.Marshal(next)
	if err != nil {
		return 0, fmt.Errorf("filestore: encode: %w", err)
	}
	if err := writeAtomic(p, b); err != nil {
		return 0, err
	}
	return next.Version, nil
}

func writeAtomic(p string, b []byte) (err error) {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, filepath.Base(p)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("filestore: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close: %w", err)
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("filestore: rename: %w", err)
	}

	// persist the rename itself; not supported everywhere
	if d, derr := os.Open(dir); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
