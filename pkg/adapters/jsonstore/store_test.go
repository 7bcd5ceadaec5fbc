package jsonstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func TestStore_LoadMissing(t *testing.T) {
	s := New(mocks.NewFileSystem(), "settings.json")

	if _, err := s.Load(context.Background()); !errors.Is(err, ports.ErrSettingsNotFound) {
		t.Errorf("expected ErrSettingsNotFound, got %v", err)
	}
}

func TestStore_LoadEmptyFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile("settings.json", nil)
	s := New(fs, "settings.json")

	if _, err := s.Load(context.Background()); !errors.Is(err, ports.ErrSettingsNotFound) {
		t.Errorf("expected ErrSettingsNotFound, got %v", err)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	fs := mocks.NewFileSystem()
	s := New(fs, "data/settings.json")
	ctx := context.Background()

	if err := s.Save(ctx, []byte(`{"global":{}}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != `{"global":{}}` {
		t.Errorf("unexpected data %s", data)
	}
	if _, ok := fs.GetFile("data/settings.json"); !ok {
		t.Error("document should be written at the configured path")
	}
}

func TestStore_ReadError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile("settings.json", []byte("{}"))
	fs.ReadFileFunc = func(path string) ([]byte, error) { return nil, errors.New("permission denied") }
	s := New(fs, "settings.json")

	_, err := s.Load(context.Background())
	if err == nil || errors.Is(err, ports.ErrSettingsNotFound) {
		t.Errorf("expected a read error, got %v", err)
	}
}
