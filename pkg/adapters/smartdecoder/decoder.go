// Package smartdecoder opens user media as a frame source, choosing between
// a still image and a video decoder by file extension.
package smartdecoder

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// videoExtensions are opened with the video decoder.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
}

// IsVideo reports whether path names a video file.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Decoder implements ports.MediaOpener for both stills and videos.
type Decoder struct {
	fs     ports.FileSystem
	raster ports.Raster
	video  ports.MediaOpener
}

// New creates a decoder. Stills are read through fs and decoded by raster;
// videos are handed to video.
func New(fs ports.FileSystem, raster ports.Raster, video ports.MediaOpener) *Decoder {
	return &Decoder{fs: fs, raster: raster, video: video}
}

// Open opens path as a frame source.
func (d *Decoder) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if IsVideo(path) {
		return d.video.Open(ctx, path)
	}
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	decoded, err := d.raster.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewStill(decoded.Image), nil
}

var _ ports.MediaOpener = (*Decoder)(nil)

// Still is a single image served as a one-frame source. Every index
// returns the same image.
type Still struct {
	img  image.Image
	done bool
}

// NewStill wraps img.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

func (s *Still) Width() int         { return s.img.Bounds().Dx() }
func (s *Still) Height() int        { return s.img.Bounds().Dy() }
func (s *Still) FrameRate() float64 { return 0 }
func (s *Still) FrameCount() int    { return 1 }
func (s *Still) IsStill() bool      { return true }
func (s *Still) Close() error       { return nil }

func (s *Still) Frame(index int) (image.Image, error) {
	return s.img, nil
}

func (s *Still) Next() (image.Image, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return s.img, nil
}

var _ ports.FrameSource = (*Still)(nil)
