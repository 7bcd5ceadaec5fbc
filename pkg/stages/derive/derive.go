// Package derive produces secondary outputs by resampling a finished
// primary render, without composing frames again.
package derive

import (
	"context"
	"errors"
	"image"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/metrics"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/stages/encode"
	"github.com/sidneyts/NOTICIAS/pkg/stages/render"
)

var errNoFrames = errors.New("no frames decoded")

// FallbackFrameRate is used when neither the container nor the decoder
// reports a frame rate.
const FallbackFrameRate = 30.0

// Deps are the collaborators of a PostProcessor.
type Deps struct {
	FS       ports.FileSystem
	Raster   ports.Raster
	Media    ports.MediaOpener
	Prober   ports.MediaProber
	Encoders ports.VideoEncoderFactory
	Logger   ports.Logger
}

// PostProcessor writes derived outputs.
type PostProcessor struct {
	deps    Deps
	logger  ports.Logger
	encOpts ports.EncoderOptions
}

// New creates a post-processor.
func New(deps Deps, encOpts ports.EncoderOptions) *PostProcessor {
	return &PostProcessor{
		deps:    deps,
		logger:  deps.Logger.WithComponent("derive"),
		encOpts: encOpts,
	}
}

// Execute writes one output per spec in order. Per-output failures are
// reported in the results. Only cancellation is returned as an error.
func (p *PostProcessor) Execute(ctx context.Context, in pipeline.DeriveInput) ([]pipeline.RenderJobResult, error) {
	fps := p.frameRate(ctx, in.Source.OutputPath)

	results := make([]pipeline.RenderJobResult, 0, len(in.Specs))
	for _, spec := range in.Specs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		start := time.Now()
		result := pipeline.RenderJobResult{Label: spec.Label, BaseFormat: in.Source.Label}
		path, frames, err := p.derive(ctx, in, spec, fps)
		result.Elapsed = time.Since(start)
		metrics.ObserveRender(metrics.KindDerived, spec.Label, frames, result.Elapsed, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return results, err
		}
		if err != nil {
			p.logger.Warn("Derived output %s failed: %v", spec.Label, err)
			result.Err = err
		} else {
			result.OutputPath = path
			result.Frames = frames
			p.logger.Debug("Derived %s from %s: %d frames", spec.Label, in.Source.Label, frames)
		}
		results = append(results, result)
	}
	return results, nil
}

// frameRate probes the container. Zero means the decoder rate is used.
func (p *PostProcessor) frameRate(ctx context.Context, path string) float64 {
	if p.deps.Prober != nil {
		info, err := p.deps.Prober.Probe(ctx, path)
		if err == nil && info.FrameRate > 0 {
			return info.FrameRate
		}
		if err != nil {
			p.logger.Debug("Probe of %s failed, using decoder frame rate: %v", path, err)
		}
	}
	return 0
}

func (p *PostProcessor) derive(ctx context.Context, in pipeline.DeriveInput, spec pipeline.DerivedSpec, fps float64) (string, int, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return "", 0, apperr.Configuration("derive", "%s: invalid size %dx%d", spec.Label, spec.Width, spec.Height)
	}

	src, err := p.deps.Media.Open(ctx, in.Source.OutputPath)
	if err != nil {
		return "", 0, apperr.IO(err, "derive.open", "reopen %s", in.Source.OutputPath)
	}
	defer src.Close()

	if fps <= 0 {
		fps = src.FrameRate()
	}
	if fps <= 0 {
		fps = FallbackFrameRate
	}
	total := int(math.Round(spec.DurationSeconds * fps))

	outPath := filepath.Join(in.OutputDir, render.OutputName(in.RenderedAt, spec.Label, in.Tag))
	w := encode.NewWriter(p.deps.FS, p.deps.Encoders(), outPath)
	if err := w.Begin(spec.Width, spec.Height, fps, p.encOpts); err != nil {
		return "", 0, apperr.IO(err, "derive.encode", "start encoder for %s", spec.Label)
	}

	var last image.Image
	exhausted := false
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return "", 0, err
		}

		if !exhausted {
			img, err := src.Next()
			switch {
			case err == io.EOF:
				exhausted = true
			case err != nil:
				w.Abort()
				return "", 0, apperr.IO(err, "derive.read", "read frame %d of %s", i, in.Source.OutputPath)
			default:
				last = p.fit(img, spec.Width, spec.Height)
			}
		}
		if last == nil {
			w.Abort()
			return "", 0, apperr.IO(errNoFrames, "derive.read", "read %s", in.Source.OutputPath)
		}

		if err := w.Write(last); err != nil {
			w.Abort()
			return "", 0, apperr.IO(err, "derive.encode", "encode frame %d of %s", i, spec.Label)
		}
	}

	res, err := w.Finish()
	if err != nil {
		if errors.Is(err, apperr.ErrIO) {
			return "", 0, err
		}
		return "", 0, apperr.IO(err, "derive.encode", "finish %s", spec.Label)
	}
	return res.Path, res.Frames, nil
}

// fit resizes img with area interpolation and returns it as RGBA. Decoded
// video frames are opaque, so the NRGBA buffer is reused as is.
func (p *PostProcessor) fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	n := p.deps.Raster.Resize(img, width, height, ports.InterpolationArea)
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
