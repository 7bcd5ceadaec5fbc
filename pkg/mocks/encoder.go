package mocks

import (
	"image"
	"sync"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image, timestampMs int) error
	EndFunc         func() ([]byte, error)

	// Recorded calls for verification
	BeginCalled      bool
	Width, Height    int
	FPS              float64
	Options          ports.EncoderOptions
	EncodeFrameCalls []EncodeFrameCall
	EndCalled        bool
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	TimestampMs int
	Bounds      image.Rectangle
}

func (m *VideoEncoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	m.BeginCalled = true
	m.Width, m.Height, m.FPS, m.Options = width, height, fps, opts
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image, timestampMs int) error {
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{TimestampMs: timestampMs, Bounds: img.Bounds()})
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img, timestampMs)
	}
	return nil
}

func (m *VideoEncoder) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	// Minimal ftyp box
	return []byte{0, 0, 0, 8, 'f', 't', 'y', 'p'}, nil
}

// FrameCount returns the number of frames received.
func (m *VideoEncoder) FrameCount() int {
	return len(m.EncodeFrameCalls)
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

// EncoderFactory hands out recording encoders and keeps them for inspection.
type EncoderFactory struct {
	mu       sync.Mutex
	Encoders []*VideoEncoder

	// Configure, when set, is applied to each new encoder.
	Configure func(*VideoEncoder)
}

// Factory returns a ports.VideoEncoderFactory backed by f.
func (f *EncoderFactory) Factory() ports.VideoEncoderFactory {
	return func() ports.VideoEncoder {
		enc := &VideoEncoder{}
		if f.Configure != nil {
			f.Configure(enc)
		}
		f.mu.Lock()
		f.Encoders = append(f.Encoders, enc)
		f.mu.Unlock()
		return enc
	}
}
