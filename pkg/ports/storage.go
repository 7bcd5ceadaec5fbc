package ports

import (
	"context"
	"errors"
)

// ErrSettingsNotFound is returned by SettingsStore.Load when nothing has been
// saved yet.
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsStore persists the raw settings document.
// Writes replace the whole document; the last writer wins.
type SettingsStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Archiver bundles files into one compressed archive.
type Archiver interface {
	// Archive writes dst containing every file in files, stored under its
	// base name.
	Archive(dst string, files []string) error
}

// Publisher copies a finished file to a remote location.
type Publisher interface {
	// Publish uploads the file at path and returns where it can be fetched.
	Publish(ctx context.Context, path string) (string, error)
}
