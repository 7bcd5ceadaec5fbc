// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveComposedFrame does nothing.
func (s *Sink) SaveComposedFrame(label string, index int, img image.Image) error {
	return nil
}

// SaveMask does nothing.
func (s *Sink) SaveMask(label string, mask image.Image) error {
	return nil
}

// SaveParameters does nothing.
func (s *Sink) SaveParameters(label string, data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
