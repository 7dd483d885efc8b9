// Package setup persists whether the first-run wizard has been completed.
// It is the only state of the desktop that survives a restart.
package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/paths"
)

// Document is the persisted form
type Document struct {
	SetupComplete bool `toml:"setup_complete"`
}

// Store loads and saves the setup document
type Store interface {
	Load() (Document, error)
	Save(Document) error
}

// FileStore keeps the document as TOML under the storage root
type FileStore struct {
	mu     sync.Mutex
	layout paths.Layout
}

// NewFileStore creates the storage directories and returns a store
func NewFileStore(layout paths.Layout) (*FileStore, error) {
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	return &FileStore{layout: layout}, nil
}

// Path is the file the store reads and writes
func (s *FileStore) Path() string {
	return s.layout.SetupFile()
}

// Load reads the document. A missing file is a fresh install.
func (s *FileStore) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read setup file: %w", err)
	}

	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse setup file %s: %w", s.Path(), err)
	}
	return doc, nil
}

// Save writes the document through a temp file and rename
func (s *FileStore) Save(doc Document) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode setup file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.layout.TmpDir(), filepath.Base(s.Path())+".*")
	if err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	return nil
}

// MemoryStore keeps the document in memory
type MemoryStore struct {
	mu  sync.Mutex
	doc Document
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, nil
}

func (s *MemoryStore) Save(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}
