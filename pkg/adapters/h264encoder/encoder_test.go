package h264encoder

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func skipWithoutFFmpeg(t testing.TB) {
	t.Helper()
	if !IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}
}

// createTestImage creates a simple test image with gradient
func createTestImage(width, height int, frameNum int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x*255/width + frameNum*10) % 256)
			g := uint8((y*255/height + frameNum*5) % 256)
			b := uint8((x + y + frameNum*3) % 256)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func argValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestArgs(t *testing.T) {
	args := Args(1920, 1080, 30, ports.EncoderOptions{Quality: 18, Preset: "medium"}, "/tmp/out.mp4")

	if got := argValue(args, "-s"); got != "1920x1080" {
		t.Errorf("-s = %q", got)
	}
	if got := argValue(args, "-r"); got != "30" {
		t.Errorf("-r = %q", got)
	}
	if got := argValue(args, "-crf"); got != "18" {
		t.Errorf("-crf = %q", got)
	}
	if got := argValue(args, "-preset"); got != "medium" {
		t.Errorf("-preset = %q", got)
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("output = %q", args[len(args)-1])
	}
	if slices.Contains(args, "-maxrate") {
		t.Error("no bitrate cap expected")
	}
}

func TestArgs_Defaults(t *testing.T) {
	args := Args(608, 1080, 29.97, ports.EncoderOptions{Bitrate: 4000}, "out.mp4")

	if got := argValue(args, "-crf"); got != "23" {
		t.Errorf("-crf = %q, want default", got)
	}
	if got := argValue(args, "-preset"); got != DefaultPreset {
		t.Errorf("-preset = %q", got)
	}
	if got := argValue(args, "-r"); got != "29.97" {
		t.Errorf("-r = %q", got)
	}
	if got := argValue(args, "-maxrate"); got != "4000k" {
		t.Errorf("-maxrate = %q", got)
	}
}

func TestEncoderBasic(t *testing.T) {
	skipWithoutFFmpeg(t)
	enc := New()

	width, height, fps := 320, 240, 30.0
	if err := enc.Begin(width, height, fps, ports.EncoderOptions{Quality: 25}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	numFrames := 30
	for i := 0; i < numFrames; i++ {
		if err := enc.EncodeFrame(createTestImage(width, height, i), i*1000/int(fps)); err != nil {
			t.Fatalf("EncodeFrame failed at frame %d: %v", i, err)
		}
	}
	if enc.FrameCount() != numFrames {
		t.Errorf("FrameCount() = %d", enc.FrameCount())
	}

	data, err := enc.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if len(data) < 8 {
		t.Fatal("Output too small")
	}
	if string(data[4:8]) != "ftyp" {
		t.Errorf("Expected ftyp box, got: %s", string(data[4:8]))
	}
}

func TestEncoderNonRGBAInput(t *testing.T) {
	skipWithoutFFmpeg(t)
	enc := New()

	if err := enc.Begin(64, 64, 10, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < 5; i++ {
		if err := enc.EncodeFrame(img, i*100); err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
	}
	if _, err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestEncoderFrameSizeMismatch(t *testing.T) {
	skipWithoutFFmpeg(t)
	enc := New()

	if err := enc.Begin(64, 64, 10, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	err := enc.EncodeFrame(createTestImage(32, 32, 0), 0)
	if !errors.Is(err, ErrFrameSize) {
		t.Errorf("expected ErrFrameSize, got %v", err)
	}
	if err := enc.EncodeFrame(createTestImage(64, 64, 0), 0); err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if _, err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestEncoderInvalidStream(t *testing.T) {
	if err := New().Begin(0, 10, 30, ports.EncoderOptions{}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestEncoderNotInitialized(t *testing.T) {
	enc := New()

	img := createTestImage(100, 100, 0)
	if err := enc.EncodeFrame(img, 0); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got: %v", err)
	}
	if _, err := enc.End(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got: %v", err)
	}
}

func BenchmarkEncode1280x720(b *testing.B) {
	skipWithoutFFmpeg(b)
	img := createTestImage(1280, 720, 0)

	enc := New()
	if err := enc.Begin(1280, 720, 30, ports.EncoderOptions{Quality: 25}); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := enc.EncodeFrame(img, i*33); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
	enc.End()
}
