package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func red(img image.Image) uint8 {
	r, _, _, _ := img.At(0, 0).RGBA()
	return uint8(r >> 8)
}

func TestHoldReader_ClampsToLastFrame(t *testing.T) {
	src := mocks.NewVideoSource(2, 2, 5, 30)
	r := NewHoldReader(src)

	for i, want := range []uint8{0, 1, 2, 3, 4, 4, 4} {
		img, err := r.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if got := red(img); got != want {
			t.Errorf("At(%d) = frame %d, want %d", i, got, want)
		}
	}
}

func TestHoldReader_OverstatedCount(t *testing.T) {
	src := mocks.NewVideoSource(2, 2, 3, 30)
	src.Count = 10
	r := NewHoldReader(src)

	for i := 0; i < 6; i++ {
		img, err := r.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		want := uint8(min(i, 2))
		if got := red(img); got != want {
			t.Errorf("At(%d) = frame %d, want %d", i, got, want)
		}
	}
}

func TestHoldReader_Still(t *testing.T) {
	src := mocks.NewStillSource(2, 2, color.RGBA{R: 9, A: 255})
	r := NewHoldReader(src)

	for i := 0; i < 4; i++ {
		img, err := r.At(i * 100)
		if err != nil {
			t.Fatal(err)
		}
		if red(img) != 9 {
			t.Errorf("unexpected still frame")
		}
	}
	if len(src.FrameCalls) != 1 {
		t.Errorf("still image should be fetched once, got %d calls", len(src.FrameCalls))
	}
}

func TestHoldReader_Empty(t *testing.T) {
	src := &mocks.FrameSource{W: 2, H: 2}
	if _, err := NewHoldReader(src).At(0); !errors.Is(err, ports.ErrFrameOutOfRange) {
		t.Errorf("expected ErrFrameOutOfRange, got %v", err)
	}
}
