// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// ImageEncoder encodes still images. ports.Raster satisfies it.
type ImageEncoder interface {
	EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
}

// Sink saves debug output under baseDir, one directory per format label:
//
//	<baseDir>/<label>/parameters.json
//	<baseDir>/<label>/mask.png
//	<baseDir>/<label>/frames/frame-0030.png
type Sink struct {
	baseDir string
	fs      ports.FileSystem
	encoder ImageEncoder
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, encoder ImageEncoder) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		encoder: encoder,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveParameters saves the merged render parameters.
func (s *Sink) SaveParameters(label string, data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, label, "parameters.json"), data)
}

// SaveMask saves the edge-fade mask used for a format.
func (s *Sink) SaveMask(label string, mask image.Image) error {
	data, err := s.encoder.EncodeImage(mask, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode mask: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, label, "mask.png"), data)
}

// SaveComposedFrame saves a composed frame.
func (s *Sink) SaveComposedFrame(label string, index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, label, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.encoder.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode composed frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
