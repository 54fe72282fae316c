package activity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when an activity file does not exist.
var ErrNotFound = errors.New("activity not found")

// Store reads and writes whole activity documents on a filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore creates a store over fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Fs returns the filesystem the store operates on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Load reads and decodes the activity at path.
func (s *Store) Load(path string) (*Activity, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read activity %s: %w", path, err)
	}
	a, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Save encodes the activity and replaces the file at path.
func (s *Store) Save(path string, a *Activity) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}
	return s.Write(path, data)
}

// Write replaces the file at path with already encoded document bytes.
func (s *Store) Write(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create activity directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return fmt.Errorf("write activity %s: %w", path, err)
	}
	return nil
}
