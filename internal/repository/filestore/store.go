// Package filestore keeps each collection as a JSON array in its own file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

type Store struct {
	dir      string
	group    singleflight.Group
	readFile func(name string) ([]byte, error)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, readFile: os.ReadFile, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	docs, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		docID, err := repository.DocumentID(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrPersistence, collection, err)
		}
		if docID == id {
			return doc, nil
		}
	}
	return nil, repository.NotFound(collection, id)
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	docs, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(docs))
	copy(out, docs)
	return out, nil
}

// Put replaces the document with the same id or appends it.
func (s *Store) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	lock := s.lockFor(collection)
	lock.Lock()
	defer lock.Unlock()

	docs, err := s.read(collection)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range docs {
		docID, err := repository.DocumentID(existing)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, collection, err)
		}
		if docID == id {
			docs[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		docs = append(docs, doc)
	}
	return s.commit(collection, docs)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	lock := s.lockFor(collection)
	lock.Lock()
	defer lock.Unlock()

	docs, err := s.read(collection)
	if err != nil {
		return err
	}

	for i, existing := range docs {
		docID, err := repository.DocumentID(existing)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, collection, err)
		}
		if docID == id {
			docs = append(docs[:i], docs[i+1:]...)
			return s.commit(collection, docs)
		}
	}
	return repository.NotFound(collection, id)
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *Store) lockFor(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

// commit writes docs and drops any read already in flight for the collection,
// so reads that start after the write see it. Callers hold the collection lock.
func (s *Store) commit(collection string, docs []json.RawMessage) error {
	err := s.write(collection, docs)
	s.group.Forget(collection)
	return err
}

// load collapses concurrent reads of the same file into one.
func (s *Store) load(collection string) ([]json.RawMessage, error) {
	v, err, _ := s.group.Do(collection, func() (interface{}, error) {
		return s.read(collection)
	})
	if err != nil {
		return nil, err
	}
	return v.([]json.RawMessage), nil
}

func (s *Store) read(collection string) ([]json.RawMessage, error) {
	data, err := s.readFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, collection, err)
	}
	if len(data) == 0 {
		return []json.RawMessage{}, nil
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrPersistence, collection, err)
	}
	return docs, nil
}

// write replaces the collection file atomically via a temp file and rename.
func (s *Store) write(collection string, docs []json.RawMessage) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, collection, err)
	}

	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, collection, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrPersistence, collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrPersistence, collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		return fmt.Errorf("%w: rename %s: %v", domain.ErrPersistence, collection, err)
	}
	return nil
}
