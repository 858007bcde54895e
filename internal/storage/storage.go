// Package storage keeps uploaded post images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"postboard/internal/middleware"

	"github.com/google/uuid"
)

// DefaultUploadDir is used when no directory is configured.
const DefaultUploadDir = "public/upload"

// Store writes and removes files under one directory. Names are bare
// filenames; any directory component is stripped.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultUploadDir
	}
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// NewFilename builds a collision resistant name of the form
// YYYYMMDDHHMMSS-<uuid>.<ext>, keeping the lower-cased extension of original.
func (s *Store) NewFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%s-%s%s", s.now().UTC().Format("20060102150405"), uuid.NewString(), ext)
}

// Path returns the location of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save writes data as name, creating the directory if needed.
func (s *Store) Save(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	middleware.StoredImageBytes.Add(float64(len(data)))
	return nil
}

// Remove deletes name. A missing file is not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
