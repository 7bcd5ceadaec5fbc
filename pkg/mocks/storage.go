package mocks

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// SettingsStore is an in-memory ports.SettingsStore.
type SettingsStore struct {
	mu   sync.Mutex
	data []byte

	LoadErr error
	SaveErr error
	Saves   int
}

func (m *SettingsStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return nil, ports.ErrSettingsNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *SettingsStore) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// Data returns the last saved document.
func (m *SettingsStore) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

var _ ports.SettingsStore = (*SettingsStore)(nil)

// Archiver records archive requests and writes a placeholder archive to FS
// when set.
type Archiver struct {
	FS  *FileSystem
	Err error

	Calls []ArchiveCall
}

// ArchiveCall records a call to Archive.
type ArchiveCall struct {
	Dst   string
	Files []string
}

func (m *Archiver) Archive(dst string, files []string) error {
	m.Calls = append(m.Calls, ArchiveCall{Dst: dst, Files: append([]string(nil), files...)})
	if m.Err != nil {
		return m.Err
	}
	if m.FS != nil {
		m.FS.SetFile(dst, []byte("PK"))
	}
	return nil
}

var _ ports.Archiver = (*Archiver)(nil)

// Publisher records published paths.
type Publisher struct {
	BaseURL string
	Err     error

	Published []string
}

func (m *Publisher) Publish(ctx context.Context, path string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Published = append(m.Published, path)
	return m.BaseURL + "/" + filepath.Base(path), nil
}

var _ ports.Publisher = (*Publisher)(nil)
