// Package filestore implements storage.Adapter with one file per key.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"todo/internal/storage"
)

const (
	// fileExt is appended to every escaped key.
	fileExt = ".json"

	// tempPattern is the CreateTemp pattern used for atomic writes.
	tempPattern = ".tmp-*"
)

// Store keeps each key in its own file under Dir.
// Writes go through a temp file and a rename so readers never see a torn value.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory with mode 0700.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: data dir is empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("filestore: create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path that backs key.
func (s *Store) Path(key string) (string, error) {
	if key == "" {
		return "", storage.ErrInvalidKey
	}
	// QueryEscape also escapes '/', ':' and '@', which keeps the name a single path element.
	return filepath.Join(s.dir, url.QueryEscape(key)+fileExt), nil
}

// Get implements storage.Adapter.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path, err := s.Path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("filestore: read %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements storage.Adapter.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		cleanup()
		return fmt.Errorf("filestore: chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("filestore: rename %s: %w", key, err)
	}
	return nil
}
