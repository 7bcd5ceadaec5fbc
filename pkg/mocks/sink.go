package mocks

import (
	"fmt"
	"image"
	"sync"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	ComposedFrames map[string]image.Image // keyed "label/index"
	Masks          map[string]image.Image
	Parameters     map[string][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:        enabled,
		ComposedFrames: make(map[string]image.Image),
		Masks:          make(map[string]image.Image),
		Parameters:     make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveComposedFrame(label string, index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ComposedFrames[fmt.Sprintf("%s/%d", label, index)] = img
	return nil
}

func (m *DebugSink) SaveMask(label string, mask image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Masks[label] = mask
	return nil
}

func (m *DebugSink) SaveParameters(label string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Parameters[label] = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
