package ports

import "time"

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the file at path with data, creating parent
	// directories as needed. Readers never observe a partial file.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error

	// Glob returns the paths matching pattern (filepath.Match syntax).
	Glob(pattern string) ([]string, error)

	// ModTime returns the last modification time of path.
	ModTime(path string) (time.Time, error)
}
