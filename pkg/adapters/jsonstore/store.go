// Package jsonstore keeps the settings document in a single file.
package jsonstore

import (
	"context"
	"fmt"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Store implements ports.SettingsStore on top of a ports.FileSystem.
type Store struct {
	fs   ports.FileSystem
	path string
}

// New creates a store for the document at path.
func New(fs ports.FileSystem, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored document, or ports.ErrSettingsNotFound when the
// file does not exist or is empty.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	ok, err := s.fs.Exists(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if !ok {
		return nil, ports.ErrSettingsNotFound
	}
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, ports.ErrSettingsNotFound
	}
	return data, nil
}

// Save replaces the document.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := s.fs.WriteFile(s.path, data); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

var _ ports.SettingsStore = (*Store)(nil)
