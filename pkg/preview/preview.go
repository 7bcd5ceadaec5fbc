// Package preview renders a single representative frame of a format as a
// JPEG, for checking a layout before the full batch is rendered.
package preview

import (
	"context"
	"image"
	"math"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/metrics"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Defaults.
const (
	// AtSeconds is the position of the preview frame, past the bumper.
	AtSeconds   = 5.0
	JPEGQuality = 90
)

// StillRenderer composes one frame without the bumper.
// *render.Driver implements it.
type StillRenderer interface {
	RenderStill(ctx context.Context, in pipeline.RenderInput, index int) (*image.RGBA, error)
}

// Request describes one preview.
type Request struct {
	Input pipeline.RenderInput
	// Path is where the JPEG is written.
	Path string
}

// Result describes a written preview.
type Result struct {
	Path       string
	FrameIndex int
	Elapsed    time.Duration
}

// Previewer renders previews one at a time, since they share one output
// file.
type Previewer struct {
	renderer StillRenderer
	fs       ports.FileSystem
	encoder  ports.Raster
	logger   ports.Logger
	sem      *semaphore.Weighted
}

// New creates a previewer.
func New(renderer StillRenderer, fs ports.FileSystem, encoder ports.Raster, logger ports.Logger) *Previewer {
	return &Previewer{
		renderer: renderer,
		fs:       fs,
		encoder:  encoder,
		logger:   logger.WithComponent("preview"),
		sem:      semaphore.NewWeighted(1),
	}
}

// FrameIndex returns the index of the preview frame at fps.
func FrameIndex(fps float64) int {
	return int(math.Floor(AtSeconds * fps))
}

// Render waits for any running preview, renders the frame and writes it.
// Video media shorter than the preview position uses its last frame.
func (p *Previewer) Render(ctx context.Context, req Request) (Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	index := FrameIndex(req.Input.Params.FrameRate)
	frame, err := p.renderer.RenderStill(ctx, req.Input, index)
	if err != nil {
		return Result{}, err
	}

	data, err := p.encoder.EncodeImage(frame, ports.FormatJPEG, JPEGQuality)
	if err != nil {
		return Result{}, apperr.Wrap(err, apperr.CodeInternal, "preview.encode", "encode preview")
	}
	if err := p.fs.WriteFile(req.Path, data); err != nil {
		return Result{}, apperr.IO(err, "preview.write", "write %s", req.Path)
	}

	elapsed := time.Since(start)
	metrics.ObservePreview(elapsed)
	p.logger.Debug("Preview of %s written to %s (frame %d)", req.Input.Format.Label, req.Path, index)
	return Result{Path: req.Path, FrameIndex: index, Elapsed: elapsed}, nil
}
