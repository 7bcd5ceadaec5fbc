package filesink

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ggrenderer"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

type failingEncoder struct{}

func (failingEncoder) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), ggrenderer.New())

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveParameters(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	data := []byte(`{"retranca": "TESTE"}`)
	if err := sink.SaveParameters("STORY", data); err != nil {
		t.Fatalf("SaveParameters failed: %v", err)
	}

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "STORY", "parameters.json"))
	if !ok {
		t.Fatal("expected parameters.json to be saved")
	}
	if !bytes.Equal(saved, data) {
		t.Errorf("expected %s, got %s", data, saved)
	}
}

func TestSink_SaveMask(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	mask := image.NewGray(image.Rect(0, 0, 8, 4))
	if err := sink.SaveMask("BOX", mask); err != nil {
		t.Fatalf("SaveMask failed: %v", err)
	}

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "BOX", "mask.png"))
	if !ok {
		t.Fatal("expected mask.png to be saved")
	}
	img, err := png.Decode(bytes.NewReader(saved))
	if err != nil {
		t.Fatalf("mask is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("unexpected mask size %v", img.Bounds())
	}
}

func TestSink_SaveComposedFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, ggrenderer.New())

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for _, index := range []int{0, 30, 60} {
		if err := sink.SaveComposedFrame("HD", index, img); err != nil {
			t.Fatalf("SaveComposedFrame failed: %v", err)
		}
	}

	for _, name := range []string{"frame-0000.png", "frame-0030.png", "frame-0060.png"} {
		if _, ok := fs.GetFile(filepath.Join(testBaseDir, "HD", "frames", name)); !ok {
			t.Errorf("expected %s to be saved", name)
		}
	}
}

func TestSink_EncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, failingEncoder{})

	if err := sink.SaveComposedFrame("HD", 0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error")
	}
	if err := sink.SaveMask("HD", image.NewGray(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("nothing should be written")
	}
}
