package derive

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ggrenderer"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/logger"
	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

const sourcePath = "output/18102026_HD_URBNEWS_TESTE.mp4"

type fixture struct {
	fs     *mocks.FileSystem
	media  *mocks.MediaOpener
	prober *mocks.MediaProber
	encs   *mocks.EncoderFactory
	pp     *PostProcessor
	input  pipeline.DeriveInput
}

func newFixture(sourceFrames int, sourceFPS float64) *fixture {
	f := &fixture{
		fs:     mocks.NewFileSystem(),
		media:  mocks.NewMediaOpener(),
		prober: &mocks.MediaProber{Info: map[string]ports.MediaInfo{}},
		encs:   &mocks.EncoderFactory{},
	}
	f.media.OpenFunc = func(ctx context.Context, path string) (ports.FrameSource, error) {
		if path != sourcePath {
			return nil, errors.New("no such file")
		}
		// A fresh decoder per open, like the real adapter.
		return mocks.NewVideoSource(64, 36, sourceFrames, sourceFPS), nil
	}
	f.pp = New(Deps{
		FS:       f.fs,
		Raster:   ggrenderer.New(),
		Media:    f.media,
		Prober:   f.prober,
		Encoders: f.encs.Factory(),
		Logger:   logger.NewNoop(),
	}, ports.EncoderOptions{Quality: 23})
	f.input = pipeline.DeriveInput{
		Source: pipeline.RenderJobResult{Label: "HD", BaseFormat: "HD", OutputPath: sourcePath},
		Specs: []pipeline.DerivedSpec{
			{Label: "MUB-FOR-SP", Width: 608, Height: 1080, DurationSeconds: 10},
		},
		Tag:        "teste",
		OutputDir:  "output",
		RenderedAt: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}
	return f
}

func TestPostProcessor_ResamplesToDerivedSize(t *testing.T) {
	f := newFixture(300, 30)
	f.prober.Info[sourcePath] = ports.MediaInfo{FrameRate: 30, Width: 64, Height: 36}

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.OK() {
		t.Fatalf("derive failed: %v", r.Err)
	}
	if r.Frames != 300 {
		t.Errorf("expected 300 frames, got %d", r.Frames)
	}
	if r.OutputPath != "output/18102026_MUB-FOR-SP_URBNEWS_TESTE.mp4" {
		t.Errorf("unexpected output path %q", r.OutputPath)
	}
	if r.BaseFormat != "HD" {
		t.Errorf("base format = %q", r.BaseFormat)
	}

	enc := f.encs.Encoders[0]
	if enc.Width != 608 || enc.Height != 1080 || enc.FPS != 30 {
		t.Errorf("encoder began with %dx%d@%v", enc.Width, enc.Height, enc.FPS)
	}
	want := image.Rect(0, 0, 608, 1080)
	for i, call := range enc.EncodeFrameCalls {
		if call.Bounds != want {
			t.Fatalf("frame %d bounds %v, want %v", i, call.Bounds, want)
		}
	}
	if _, ok := f.fs.GetFile(r.OutputPath); !ok {
		t.Error("output file was not written")
	}
}

func TestPostProcessor_HoldsLastFrame(t *testing.T) {
	f := newFixture(90, 30)
	f.input.Specs[0] = pipeline.DerivedSpec{Label: "SHORT", Width: 32, Height: 18, DurationSeconds: 5}

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].OK() || results[0].Frames != 150 {
		t.Fatalf("expected 150 frames, got %v", results[0])
	}
}

func TestPostProcessor_Truncates(t *testing.T) {
	f := newFixture(300, 30)
	f.input.Specs[0].DurationSeconds = 2

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Frames != 60 {
		t.Errorf("expected 60 frames, got %d", results[0].Frames)
	}
}

func TestPostProcessor_FrameRateFallback(t *testing.T) {
	tests := []struct {
		name      string
		probed    float64
		probeErr  error
		decoderFP float64
		want      float64
	}{
		{"probe wins", 25, nil, 30, 25},
		{"probe error uses decoder", 0, errors.New("no ffprobe"), 24, 24},
		{"nothing reported", 0, errors.New("no ffprobe"), 0, FallbackFrameRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(10, tt.decoderFP)
			f.prober.ProbeFunc = func(ctx context.Context, path string) (ports.MediaInfo, error) {
				return ports.MediaInfo{FrameRate: tt.probed}, tt.probeErr
			}
			f.input.Specs[0] = pipeline.DerivedSpec{Label: "X", Width: 16, Height: 16, DurationSeconds: 1}

			if _, err := f.pp.Execute(context.Background(), f.input); err != nil {
				t.Fatal(err)
			}
			if got := f.encs.Encoders[0].FPS; got != tt.want {
				t.Errorf("fps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostProcessor_FailuresStayPerOutput(t *testing.T) {
	f := newFixture(30, 30)
	f.input.Specs = []pipeline.DerivedSpec{
		{Label: "BAD", Width: 0, Height: 10, DurationSeconds: 1},
		{Label: "GOOD", Width: 16, Height: 16, DurationSeconds: 1},
	}

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !errors.Is(results[0].Err, apperr.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", results[0].Err)
	}
	if !results[1].OK() {
		t.Errorf("second output should succeed: %v", results[1].Err)
	}
}

func TestPostProcessor_MissingSource(t *testing.T) {
	f := newFixture(30, 30)
	f.input.Source.OutputPath = "output/gone.mp4"

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(results[0].Err, apperr.ErrIO) {
		t.Errorf("expected IO error, got %v", results[0].Err)
	}
}

func TestPostProcessor_EmptySource(t *testing.T) {
	f := newFixture(0, 30)

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].OK() {
		t.Error("expected an error for a source with no frames")
	}
	if len(f.encs.Encoders[0].EncodeFrameCalls) != 0 {
		t.Error("no frames should be encoded")
	}
}

func TestPostProcessor_WriteFailure(t *testing.T) {
	f := newFixture(30, 30)
	f.input.Specs[0] = pipeline.DerivedSpec{Label: "X", Width: 16, Height: 16, DurationSeconds: 1}
	f.fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("disk full") }

	results, err := f.pp.Execute(context.Background(), f.input)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(results[0].Err, apperr.ErrIO) {
		t.Errorf("expected IO error, got %v", results[0].Err)
	}
}

func TestPostProcessor_Cancelled(t *testing.T) {
	f := newFixture(30, 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.pp.Execute(ctx, f.input); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
