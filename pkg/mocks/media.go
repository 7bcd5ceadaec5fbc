package mocks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource serving frames
// from memory.
type FrameSource struct {
	W, H  int
	FPS   float64
	Count int // Declared frame count; 0 means unknown
	Still bool

	// Frames are returned by index. Indices past the end are out of range.
	Frames []image.Image

	FrameFunc func(index int) (image.Image, error)

	// Recorded calls for verification
	FrameCalls []int
	Closed     bool

	next int
}

// NewVideoSource creates a source of n solid frames whose red channel is
// the frame index.
func NewVideoSource(w, h, n int, fps float64) *FrameSource {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = solidRGBA(w, h, color.RGBA{R: uint8(i), A: 255})
	}
	return &FrameSource{W: w, H: h, FPS: fps, Count: n, Frames: frames}
}

// NewStillSource creates a still image source of one solid colour.
func NewStillSource(w, h int, c color.Color) *FrameSource {
	return &FrameSource{W: w, H: h, Count: 1, Still: true, Frames: []image.Image{solidRGBA(w, h, c)}}
}

func solidRGBA(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r, g, b, a := c.RGBA()
	px := [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px[:])
	}
	return img
}

func (m *FrameSource) Width() int         { return m.W }
func (m *FrameSource) Height() int        { return m.H }
func (m *FrameSource) FrameRate() float64 { return m.FPS }
func (m *FrameSource) FrameCount() int    { return m.Count }
func (m *FrameSource) IsStill() bool      { return m.Still }

func (m *FrameSource) Frame(index int) (image.Image, error) {
	m.FrameCalls = append(m.FrameCalls, index)
	if m.FrameFunc != nil {
		return m.FrameFunc(index)
	}
	if m.Still && len(m.Frames) > 0 {
		return m.Frames[0], nil
	}
	if index < 0 || index >= len(m.Frames) {
		return nil, ports.ErrFrameOutOfRange
	}
	return m.Frames[index], nil
}

func (m *FrameSource) Next() (image.Image, error) {
	if m.Still && m.next > 0 {
		return nil, io.EOF
	}
	img, err := m.Frame(m.next)
	if errors.Is(err, ports.ErrFrameOutOfRange) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	m.next++
	return img, nil
}

func (m *FrameSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)

// MediaOpener is a mock implementation of ports.MediaOpener.
type MediaOpener struct {
	Sources  map[string]ports.FrameSource
	OpenFunc func(ctx context.Context, path string) (ports.FrameSource, error)

	// Opened records every requested path.
	Opened []string
}

// NewMediaOpener creates an opener with no registered sources.
func NewMediaOpener() *MediaOpener {
	return &MediaOpener{Sources: make(map[string]ports.FrameSource)}
}

func (m *MediaOpener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	m.Opened = append(m.Opened, path)
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, path)
	}
	if src, ok := m.Sources[path]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

var _ ports.MediaOpener = (*MediaOpener)(nil)

// MediaProber is a mock implementation of ports.MediaProber.
type MediaProber struct {
	Info      map[string]ports.MediaInfo
	ProbeFunc func(ctx context.Context, path string) (ports.MediaInfo, error)
}

func (m *MediaProber) Probe(ctx context.Context, path string) (ports.MediaInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	if info, ok := m.Info[path]; ok {
		return info, nil
	}
	return ports.MediaInfo{}, fmt.Errorf("probe %s: no info", path)
}

var _ ports.MediaProber = (*MediaProber)(nil)
