package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-errors"
)

// FileStore keeps every slot in a single JSON document on disk, the durable
// analog of a browser's local storage. Writes go through a temp file and
// rename so a crashed write never leaves a half-serialized document behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultDir returns the per-user config directory for the portal client,
// honoring XDG_CONFIG_HOME when set.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "syntaxclub")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "syntaxclub")
}

// NewFileStore opens (or prepares to create) the store document at path.
// An empty path places the document under DefaultDir.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(DefaultDir(), "storage.json")
	}
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "storage read cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := slots[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "storage write cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return err
	}

	slots[key] = value
	return s.save(slots)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "storage delete cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := slots[key]; !ok {
		return nil
	}
	delete(slots, key)
	return s.save(slots)
}

// Path exposes the backing file location, mostly for diagnostics.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read storage file")
	}

	slots := map[string]string{}
	if len(raw) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "storage file is corrupted")
	}
	return slots, nil
}

func (s *FileStore) save(slots map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create storage directory")
	}

	raw, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode storage document")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write storage document")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to replace storage document")
	}
	return nil
}

var _ Storage = (*FileStore)(nil)
