package smartdecoder

import (
	"context"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ggrenderer"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func TestIsVideo(t *testing.T) {
	tests := map[string]bool{
		"uploads/user_media.mp4":  true,
		"uploads/user_media.WEBM": true,
		"clip.mov":                true,
		"clip.avi":                true,
		"clip.mkv":                true,
		"photo.jpg":               false,
		"photo.png":               false,
		"noext":                   false,
	}
	for path, want := range tests {
		if got := IsVideo(path); got != want {
			t.Errorf("IsVideo(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDecoder_OpenStill(t *testing.T) {
	r := ggrenderer.New()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatal(err)
	}

	fs := mocks.NewFileSystem()
	fs.SetFile("uploads/user_media.png", data)
	video := mocks.NewMediaOpener()

	src, err := New(fs, r, video).Open(context.Background(), "uploads/user_media.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if !src.IsStill() || src.FrameCount() != 1 {
		t.Error("expected a still source")
	}
	if src.Width() != 40 || src.Height() != 30 {
		t.Errorf("size = %dx%d", src.Width(), src.Height())
	}
	a, _ := src.Frame(0)
	b, _ := src.Frame(299)
	if a != b {
		t.Error("every index should return the same image")
	}
	if len(video.Opened) != 0 {
		t.Error("video decoder should not be used for images")
	}
}

func TestDecoder_OpenVideo(t *testing.T) {
	video := mocks.NewMediaOpener()
	video.Sources["clip.mp4"] = mocks.NewVideoSource(8, 8, 3, 30)

	src, err := New(mocks.NewFileSystem(), ggrenderer.New(), video).Open(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if src.IsStill() {
		t.Error("expected a video source")
	}
}

func TestDecoder_Errors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.SetFile("bad.jpg", []byte("not an image"))
	d := New(fs, ggrenderer.New(), mocks.NewMediaOpener())

	if _, err := d.Open(context.Background(), "missing.jpg"); err == nil {
		t.Error("expected read error")
	}
	if _, err := d.Open(context.Background(), "bad.jpg"); err == nil {
		t.Error("expected decode error")
	}
}

func TestStill_Next(t *testing.T) {
	s := NewStill(image.NewGray(image.Rect(0, 0, 2, 2)))
	if _, err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
