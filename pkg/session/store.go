package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Store reads and writes the session through a ports.SettingsStore. Every
// mutation is a whole-document read, modify and write; the last writer
// wins.
type Store struct {
	backend ports.SettingsStore
	logger  ports.Logger
}

// NewStore creates a store.
func NewStore(backend ports.SettingsStore, logger ports.Logger) *Store {
	return &Store{backend: backend, logger: logger.WithComponent("session")}
}

// Load returns the stored session, or an empty one if nothing was saved.
// An unreadable or malformed document is a media read error.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, ports.ErrSettingsNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, apperr.MediaRead(err, "session.load", "read settings")
	}
	sess := New()
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, apperr.MediaRead(err, "session.load", "decode settings")
	}
	return sess, nil
}

// Save replaces the stored document.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "    ")
	if err != nil {
		return apperr.Wrap(err, apperr.CodeInternal, "session.save", "encode settings")
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return apperr.IO(err, "session.save", "write settings")
	}
	return nil
}

// Merge applies patch to the stored document and saves it.
func (s *Store) Merge(ctx context.Context, patch map[string]any) (*Session, error) {
	sess, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess.Merge(patch)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Debug("Settings saved (%d keys)", len(patch))
	return sess, nil
}

// SetUserMedia records the stored and original names of the uploaded media.
func (s *Store) SetUserMedia(ctx context.Context, stored, original string) (*Session, error) {
	return s.Merge(ctx, map[string]any{
		KeyUserMediaFilename:         stored,
		KeyUserMediaOriginalFilename: original,
	})
}

// EnsureDefaults writes a document holding the default options when none
// exists yet, and returns the session either way.
func (s *Store) EnsureDefaults(ctx context.Context) (*Session, error) {
	_, err := s.backend.Load(ctx)
	if err == nil {
		return s.Load(ctx)
	}
	if !errors.Is(err, ports.ErrSettingsNotFound) {
		return nil, apperr.MediaRead(err, "session.load", "read settings")
	}
	sess := New()
	sess.Merge(sess.Document())
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Default settings written")
	return sess, nil
}
