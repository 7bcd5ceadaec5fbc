package encode

import (
	"errors"
	"image"
	"testing"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func TestWriter_Finish(t *testing.T) {
	fs := mocks.NewFileSystem()
	enc := &mocks.VideoEncoder{}
	w := NewWriter(fs, enc, "output/a.mp4")

	if err := w.Begin(64, 36, 30, ports.EncoderOptions{Quality: 23}); err != nil {
		t.Fatal(err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for i := 0; i < 45; i++ {
		if err := w.Write(frame); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	result, err := w.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Frames != 45 {
		t.Errorf("expected 45 frames, got %d", result.Frames)
	}
	if result.DurationMs != 1500 {
		t.Errorf("expected duration 1500, got %d", result.DurationMs)
	}
	if enc.EncodeFrameCalls[30].TimestampMs != 1000 {
		t.Errorf("frame 30 timestamp = %d", enc.EncodeFrameCalls[30].TimestampMs)
	}
	if enc.Width != 64 || enc.Height != 36 || enc.FPS != 30 {
		t.Errorf("Begin got %dx%d@%v", enc.Width, enc.Height, enc.FPS)
	}
	if _, ok := fs.GetFile("output/a.mp4"); !ok {
		t.Error("expected output file")
	}
	if result.FileSize == 0 {
		t.Error("expected file size")
	}
}

func TestWriter_NotStarted(t *testing.T) {
	w := NewWriter(mocks.NewFileSystem(), &mocks.VideoEncoder{}, "x.mp4")
	if err := w.Write(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if _, err := w.Finish(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestWriter_NoFrames(t *testing.T) {
	enc := &mocks.VideoEncoder{}
	w := NewWriter(mocks.NewFileSystem(), enc, "x.mp4")
	if err := w.Begin(8, 8, 30, ports.EncoderOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Finish(); err == nil {
		t.Error("expected error for empty video")
	}
	if !enc.EndCalled {
		t.Error("encoder should still be closed")
	}
}

func TestWriter_EncoderErrors(t *testing.T) {
	boom := errors.New("boom")

	enc := &mocks.VideoEncoder{BeginFunc: func(int, int, float64, ports.EncoderOptions) error { return boom }}
	if err := NewWriter(mocks.NewFileSystem(), enc, "x.mp4").Begin(8, 8, 30, ports.EncoderOptions{}); !errors.Is(err, boom) {
		t.Errorf("Begin error = %v", err)
	}

	enc = &mocks.VideoEncoder{EndFunc: func() ([]byte, error) { return nil, boom }}
	w := NewWriter(mocks.NewFileSystem(), enc, "x.mp4")
	w.Begin(8, 8, 30, ports.EncoderOptions{})
	w.Write(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if _, err := w.Finish(); !errors.Is(err, boom) {
		t.Errorf("Finish error = %v", err)
	}
}

func TestWriter_WriteFailureIsIOError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(string, []byte) error { return errors.New("disk full") }

	w := NewWriter(fs, &mocks.VideoEncoder{}, "x.mp4")
	w.Begin(8, 8, 30, ports.EncoderOptions{})
	w.Write(image.NewRGBA(image.Rect(0, 0, 8, 8)))

	_, err := w.Finish()
	if !errors.Is(err, apperr.ErrIO) {
		t.Errorf("expected IO error, got %v", err)
	}
}

func TestWriter_Abort(t *testing.T) {
	fs := mocks.NewFileSystem()
	enc := &mocks.VideoEncoder{}
	w := NewWriter(fs, enc, "x.mp4")
	w.Begin(8, 8, 30, ports.EncoderOptions{})
	w.Write(image.NewRGBA(image.Rect(0, 0, 8, 8)))

	w.Abort()
	if !enc.EndCalled {
		t.Error("expected encoder End")
	}
	if _, ok := fs.GetFile("x.mp4"); ok {
		t.Error("aborted output should not be written")
	}
}
