package ports

import (
	"context"
	"errors"
	"image"
)

// ErrFrameOutOfRange is returned by FrameSource.Frame when the index is past
// the last decodable frame. It is distinct from decode failures so callers
// can clamp instead of failing.
var ErrFrameOutOfRange = errors.New("frame index out of range")

// FrameSource is an opened still image or video.
//
// Still images report a frame count of 1 and return the same image for every
// index.
type FrameSource interface {
	Width() int
	Height() int

	// FrameRate returns frames per second, or 0 for still images.
	FrameRate() float64

	// FrameCount returns the number of frames, or 0 when the container does
	// not declare it.
	FrameCount() int

	// IsStill reports whether the source is a single still image.
	IsStill() bool

	// Frame returns the frame at index. Indices past the end return
	// ErrFrameOutOfRange.
	Frame(index int) (image.Image, error)

	// Next returns the next frame in decode order and io.EOF at the end.
	Next() (image.Image, error)

	// Close releases decoder resources.
	Close() error
}

// MediaOpener opens media files as frame sources.
type MediaOpener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// MediaInfo describes a video stream.
type MediaInfo struct {
	Codec      string
	Width      int
	Height     int
	FrameRate  float64
	FrameCount int
	DurationMs int
}

// MediaProber reads stream metadata without decoding frames.
type MediaProber interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}
