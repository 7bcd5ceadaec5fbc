package ffmpegsource

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/h264encoder"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func TestDecodeArgs(t *testing.T) {
	args := DecodeArgs("in/clip.webm", 1280, 720)

	if i := slices.Index(args, "-i"); i < 0 || args[i+1] != "in/clip.webm" {
		t.Errorf("input missing: %v", args)
	}
	if i := slices.Index(args, "-s"); i < 0 || args[i+1] != "1280x720" {
		t.Errorf("size missing: %v", args)
	}
	if i := slices.Index(args, "-pix_fmt"); i < 0 || args[i+1] != "rgba" {
		t.Errorf("pixel format missing: %v", args)
	}
	if args[len(args)-1] != "pipe:" {
		t.Errorf("output = %s", args[len(args)-1])
	}
}

func TestOpen_ProbeFailure(t *testing.T) {
	o := NewOpener(&mocks.MediaProber{})
	if _, err := o.Open(context.Background(), "missing.mp4"); err == nil {
		t.Error("expected error")
	}
}

// writeClip encodes n frames whose red channel is 10*i.
func writeClip(t *testing.T, n int) string {
	t.Helper()
	if !h264encoder.IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}
	enc := h264encoder.New()
	if err := enc.Begin(32, 32, 10, ports.EncoderOptions{Quality: 1, Preset: "ultrafast"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+3] = uint8(10*i), 255
		}
		if err := enc.EncodeFrame(img, i*100); err != nil {
			t.Fatal(err)
		}
	}
	data, err := enc.End()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openClip(t *testing.T, path string, n int) ports.FrameSource {
	t.Helper()
	prober := &mocks.MediaProber{Info: map[string]ports.MediaInfo{
		path: {Width: 32, Height: 32, FrameRate: 10, FrameCount: n},
	}}
	src, err := NewOpener(prober).Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func red(t *testing.T, img image.Image) int {
	t.Helper()
	return int(color.RGBAModel.Convert(img.At(16, 16)).(color.RGBA).R)
}

func TestSource_SequentialAndRandomAccess(t *testing.T) {
	path := writeClip(t, 8)
	src := openClip(t, path, 8)

	for i := 0; i < 8; i++ {
		img, err := src.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if got := red(t, img); got < 10*i-8 || got > 10*i+8 {
			t.Errorf("frame %d red = %d", i, got)
		}
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if src.FrameCount() != 8 {
		t.Errorf("FrameCount = %d", src.FrameCount())
	}

	// Backward seek restarts decoding.
	img, err := src.Frame(2)
	if err != nil {
		t.Fatal(err)
	}
	if got := red(t, img); got < 12 || got > 28 {
		t.Errorf("frame 2 red = %d", got)
	}

	if _, err := src.Frame(8); !errors.Is(err, ports.ErrFrameOutOfRange) {
		t.Errorf("expected ErrFrameOutOfRange, got %v", err)
	}
	// The last frame is still reachable after an out-of-range request.
	if _, err := src.Frame(7); err != nil {
		t.Errorf("Frame(7): %v", err)
	}
}

func TestSource_OutOfRangeBeforeEnd(t *testing.T) {
	path := writeClip(t, 3)
	src := openClip(t, path, 0)

	if _, err := src.Frame(10); !errors.Is(err, ports.ErrFrameOutOfRange) {
		t.Errorf("expected ErrFrameOutOfRange, got %v", err)
	}
	if src.FrameCount() != 3 {
		t.Errorf("FrameCount = %d, want 3", src.FrameCount())
	}
}
