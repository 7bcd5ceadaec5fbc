// Package render implements the per-format render driver: it opens the
// template assets and the user media, composes every frame, and encodes the
// result.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/metrics"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/stages/composite"
	"github.com/sidneyts/NOTICIAS/pkg/stages/encode"
)

var errNoMedia = errors.New("no user media uploaded")

// DefaultDurationSeconds is the length of a primary render.
const DefaultDurationSeconds = 10.0

// FontOpener loads the typeface at path.
type FontOpener func(path string) (ports.FontLoader, error)

// FrameRenderer composes one frame. *composite.Compositor implements it.
type FrameRenderer interface {
	RenderFrame(in composite.FrameInput) (*image.RGBA, error)
	PrepareVignette(v ports.DecodedImage, width, height int) (*image.NRGBA, error)
	EdgeMask(width, height int, p params.RenderParameters) *image.Gray
}

// Deps are the collaborators of a Driver.
type Deps struct {
	FS         ports.FileSystem
	Raster     ports.Raster
	Media      ports.MediaOpener
	Fonts      FontOpener
	Encoders   ports.VideoEncoderFactory
	Compositor FrameRenderer
	Sink       ports.DebugSink
	Logger     ports.Logger
}

// Driver renders primary formats.
type Driver struct {
	deps    Deps
	logger  ports.Logger
	encOpts ports.EncoderOptions
}

// New creates a driver.
func New(deps Deps, encOpts ports.EncoderOptions) *Driver {
	return &Driver{
		deps:    deps,
		logger:  deps.Logger.WithComponent("render"),
		encOpts: encOpts,
	}
}

// Execute renders one format. Failures confined to the format (missing or
// invalid assets, encoder and write errors) are reported in the result's
// Err with a nil error. An unreadable user media file or a cancelled
// context is returned as the error, since no other format can succeed
// either.
func (d *Driver) Execute(ctx context.Context, in pipeline.RenderInput) (pipeline.RenderJobResult, error) {
	start := time.Now()
	result := pipeline.RenderJobResult{Label: in.Format.Label, BaseFormat: in.Format.Label}

	frames, path, err := d.render(ctx, in)
	result.Elapsed = time.Since(start)
	metrics.ObserveRender(metrics.KindPrimary, in.Format.Label, frames, result.Elapsed, err)
	if err != nil {
		if fatal(err) {
			return result, err
		}
		d.logger.Warn("Format %s failed: %v", in.Format.Label, err)
		result.Err = err
		return result, nil
	}

	result.OutputPath = path
	result.Frames = frames
	d.logger.Debug("Format %s rendered: %d frames in %s", in.Format.Label, frames, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

func fatal(err error) bool {
	return errors.Is(err, apperr.ErrMediaRead) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// assets holds the opened template assets of one format.
type assets struct {
	vignette *image.NRGBA
	logo     image.Image
	fonts    ports.FontLoader
	bumper   ports.FrameSource
}

func (d *Driver) render(ctx context.Context, in pipeline.RenderInput) (int, string, error) {
	f := in.Format
	p := in.Params

	if err := d.checkAssets(f, in.Assets, true); err != nil {
		return 0, "", err
	}

	media, err := d.openMedia(ctx, in.MediaPath)
	if err != nil {
		return 0, "", err
	}
	defer media.Close()

	a, err := d.openAssets(ctx, f, in.Assets, true)
	if err != nil {
		return 0, "", err
	}
	defer a.bumper.Close()

	fps := p.FrameRate
	duration := f.DurationSeconds
	if duration <= 0 {
		duration = DefaultDurationSeconds
	}
	total := int(math.Round(duration * fps))

	d.debugParameters(f.Label, in)
	d.debugMask(f.Label, media, in)

	outPath := filepath.Join(in.OutputDir, OutputName(in.RenderedAt, f.Label, p.Tag))
	w := encode.NewWriter(d.deps.FS, d.deps.Encoders(), outPath)
	if err := w.Begin(f.Width, f.Height, fps, d.encOpts); err != nil {
		return 0, "", apperr.IO(err, "render.encode", "start encoder for %s", f.Label)
	}

	d.logger.Debug("Rendering %s: %dx%d, %d frames at %.2f fps", f.Label, f.Width, f.Height, total, fps)

	bumpers := NewHoldReader(a.bumper)
	sources := NewHoldReader(media)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return 0, "", err
		}

		bumper, err := bumpers.At(i)
		if err != nil {
			w.Abort()
			return 0, "", apperr.Wrap(err, apperr.CodeConfiguration, "render.bumper", fmt.Sprintf("read bumper frame %d", i))
		}
		source, err := sources.At(i)
		if err != nil {
			w.Abort()
			return 0, "", apperr.MediaRead(err, "render.media", "read frame %d of %s", i, in.MediaPath)
		}

		frame, err := d.deps.Compositor.RenderFrame(composite.FrameInput{
			Source:    source,
			Bumper:    bumper,
			Vignette:  a.vignette,
			Logo:      a.logo,
			Fonts:     a.fonts,
			Index:     i,
			FrameRate: fps,
			Params:    p,
			Padding:   f.TagPadding,
			Width:     f.Width,
			Height:    f.Height,
		})
		if err != nil {
			w.Abort()
			return 0, "", err
		}

		if err := w.Write(frame); err != nil {
			w.Abort()
			return 0, "", apperr.IO(err, "render.encode", "encode frame %d of %s", i, f.Label)
		}
		d.debugFrame(f.Label, i, fps, frame)
	}

	res, err := w.Finish()
	if err != nil {
		if errors.Is(err, apperr.ErrIO) {
			return 0, "", err
		}
		return 0, "", apperr.IO(err, "render.encode", "finish %s", f.Label)
	}
	return res.Frames, res.Path, nil
}

// RenderStill composes frame index of a format without the bumper. It is
// used for previews.
func (d *Driver) RenderStill(ctx context.Context, in pipeline.RenderInput, index int) (*image.RGBA, error) {
	f := in.Format
	if err := d.checkAssets(f, in.Assets, false); err != nil {
		return nil, err
	}
	media, err := d.openMedia(ctx, in.MediaPath)
	if err != nil {
		return nil, err
	}
	defer media.Close()

	a, err := d.openAssets(ctx, f, in.Assets, false)
	if err != nil {
		return nil, err
	}
	source, err := NewHoldReader(media).At(index)
	if err != nil {
		return nil, apperr.MediaRead(err, "render.media", "read frame %d of %s", index, in.MediaPath)
	}
	return d.deps.Compositor.RenderFrame(composite.FrameInput{
		Source:    source,
		Vignette:  a.vignette,
		Logo:      a.logo,
		Fonts:     a.fonts,
		Index:     index,
		FrameRate: in.Params.FrameRate,
		Params:    in.Params,
		Padding:   f.TagPadding,
		Width:     f.Width,
		Height:    f.Height,
	})
}

func (d *Driver) openMedia(ctx context.Context, path string) (ports.FrameSource, error) {
	if path == "" {
		return nil, apperr.MediaRead(errNoMedia, "render.media", "open user media")
	}
	media, err := d.deps.Media.Open(ctx, path)
	if err != nil {
		return nil, apperr.MediaRead(err, "render.media", "open %s", path)
	}
	return media, nil
}

// checkAssets verifies that every required asset file exists.
func (d *Driver) checkAssets(f pipeline.FormatSpec, shared pipeline.SharedAssets, bumper bool) error {
	required := []struct{ kind, path string }{
		{"vignette", f.VignettePath},
		{"logo", shared.LogoPath},
		{"font", shared.FontPath},
	}
	if bumper {
		required = append(required, struct{ kind, path string }{"bumper", f.BumperPath})
	}
	for _, r := range required {
		if r.path == "" {
			return apperr.Configuration("render.assets", "%s: no %s configured", f.Label, r.kind)
		}
		ok, err := d.deps.FS.Exists(r.path)
		if err != nil {
			return apperr.IO(err, "render.assets", "check %s", r.path)
		}
		if !ok {
			return apperr.Configuration("render.assets", "%s: %s not found at %s", f.Label, r.kind, r.path)
		}
	}
	return nil
}

func (d *Driver) openAssets(ctx context.Context, f pipeline.FormatSpec, shared pipeline.SharedAssets, bumper bool) (assets, error) {
	var a assets

	vignette, err := d.decode(f.VignettePath)
	if err != nil {
		return a, apperr.Wrap(err, apperr.CodeConfiguration, "render.vignette", "decode "+f.VignettePath)
	}
	a.vignette, err = d.deps.Compositor.PrepareVignette(vignette, f.Width, f.Height)
	if err != nil {
		return a, apperr.Configuration("render.vignette", "%s: %s has no alpha channel", f.Label, f.VignettePath)
	}

	logo, err := d.decode(shared.LogoPath)
	if err != nil {
		return a, apperr.Wrap(err, apperr.CodeConfiguration, "render.logo", "decode "+shared.LogoPath)
	}
	a.logo = logo.Image

	a.fonts, err = d.deps.Fonts(shared.FontPath)
	if err != nil {
		return a, apperr.Wrap(err, apperr.CodeConfiguration, "render.font", "load "+shared.FontPath)
	}

	if !bumper {
		return a, nil
	}
	a.bumper, err = d.deps.Media.Open(ctx, f.BumperPath)
	if err != nil {
		return a, apperr.Wrap(err, apperr.CodeConfiguration, "render.bumper", "open "+f.BumperPath)
	}
	return a, nil
}

func (d *Driver) decode(path string) (ports.DecodedImage, error) {
	data, err := d.deps.FS.ReadFile(path)
	if err != nil {
		return ports.DecodedImage{}, err
	}
	return d.deps.Raster.DecodeImage(data)
}

func (d *Driver) debugParameters(label string, in pipeline.RenderInput) {
	if !d.deps.Sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(in.Params, "", "  ")
	if err == nil {
		d.deps.Sink.SaveParameters(label, data)
	}
}

func (d *Driver) debugMask(label string, media ports.FrameSource, in pipeline.RenderInput) {
	p := in.Params
	if !d.deps.Sink.Enabled() || p.MaskIntensity <= 0 {
		return
	}
	w := int(math.Round(float64(media.Width()) * p.ForegroundScale))
	h := int(math.Round(float64(media.Height()) * p.ForegroundScale))
	if w > 0 && h > 0 {
		d.deps.Sink.SaveMask(label, d.deps.Compositor.EdgeMask(w, h, p))
	}
}

// debugFrame saves one frame per second of output.
func (d *Driver) debugFrame(label string, index int, fps float64, frame image.Image) {
	if !d.deps.Sink.Enabled() {
		return
	}
	step := max(1, int(fps))
	if index%step == 0 {
		d.deps.Sink.SaveComposedFrame(label, index, frame)
	}
}
