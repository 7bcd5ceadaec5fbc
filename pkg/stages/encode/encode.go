// Package encode streams composed frames into a video encoder and stores
// the finished file.
package encode

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// ErrNotStarted is returned when frames are written before Begin.
var ErrNotStarted = errors.New("encode: writer not started")

// Result describes a finished video file.
type Result struct {
	Path       string
	Frames     int
	DurationMs int
	FileSize   int64
}

// Writer encodes one video file. Frames are timestamped from their index
// at a constant rate.
type Writer struct {
	fs      ports.FileSystem
	encoder ports.VideoEncoder
	path    string

	fps     float64
	frames  int
	started bool
}

// NewWriter creates a writer that stores the video at path.
func NewWriter(fs ports.FileSystem, encoder ports.VideoEncoder, path string) *Writer {
	return &Writer{fs: fs, encoder: encoder, path: path}
}

// Begin initializes the encoder.
func (w *Writer) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	if err := w.encoder.Begin(width, height, fps, opts); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	w.fps = fps
	w.frames = 0
	w.started = true
	return nil
}

// Write appends one frame.
func (w *Writer) Write(img image.Image) error {
	if !w.started {
		return ErrNotStarted
	}
	ts := w.timestampMs(w.frames)
	if err := w.encoder.EncodeFrame(img, ts); err != nil {
		return fmt.Errorf("encode frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int {
	return w.frames
}

// Finish finalizes the encoder and writes the file.
func (w *Writer) Finish() (Result, error) {
	if !w.started {
		return Result{}, ErrNotStarted
	}
	w.started = false
	if w.frames == 0 {
		w.encoder.End()
		return Result{}, fmt.Errorf("no frames to encode")
	}

	data, err := w.encoder.End()
	if err != nil {
		return Result{}, fmt.Errorf("end encoding: %w", err)
	}
	if err := w.fs.WriteFile(w.path, data); err != nil {
		return Result{}, apperr.IO(err, "encode.finish", "write %s", w.path)
	}

	return Result{
		Path:       w.path,
		Frames:     w.frames,
		DurationMs: w.timestampMs(w.frames),
		FileSize:   int64(len(data)),
	}, nil
}

// Abort stops the encoder and discards its output.
func (w *Writer) Abort() {
	if !w.started {
		return
	}
	w.started = false
	w.encoder.End()
}

func (w *Writer) timestampMs(index int) int {
	if w.fps <= 0 {
		return 0
	}
	return int(math.Round(float64(index) * 1000 / w.fps))
}
