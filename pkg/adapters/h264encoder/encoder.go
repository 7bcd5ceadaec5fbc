// Package h264encoder encodes frames to H.264 MP4 by piping raw RGBA into an
// ffmpeg process running libx264.
package h264encoder

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/image/draw"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegbin"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Defaults applied when EncoderOptions leaves a field empty.
const (
	DefaultCRF    = 23
	DefaultPreset = "fast"
)

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	return ffmpegbin.IsAvailable()
}

// Encoder implements ports.VideoEncoder. One Encoder writes one video.
type Encoder struct {
	mu sync.Mutex

	ffmpegPath string
	width      int
	height     int
	fps        float64

	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	tempPath   string
	frame      *image.RGBA
	frameCount int
	closed     bool
}

// New creates a new H.264 encoder.
func New() *Encoder {
	return &Encoder{}
}

// Factory returns a ports.VideoEncoderFactory producing ffmpeg encoders.
func Factory() ports.VideoEncoderFactory {
	return func() ports.VideoEncoder { return New() }
}

// Args returns the ffmpeg arguments that read raw RGBA frames from stdin and
// write an MP4 to output.
func Args(width, height int, fps float64, opts ports.EncoderOptions, output string) []string {
	crf := opts.Quality
	if crf <= 0 || crf > 51 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}
	if opts.Bitrate > 0 {
		args = append(args, "-maxrate", fmt.Sprintf("%dk", opts.Bitrate), "-bufsize", fmt.Sprintf("%dk", opts.Bitrate*2))
	}
	return append(args, "-movflags", "+faststart", output)
}

// Begin starts ffmpeg.
func (e *Encoder) Begin(width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 || fps <= 0 {
		return fmt.Errorf("h264encoder: invalid stream %dx%d@%v", width, height, fps)
	}

	ffmpegPath, err := ffmpegbin.Find()
	if err != nil {
		return err
	}
	e.ffmpegPath = ffmpegPath
	e.width = width
	e.height = height
	e.fps = fps
	e.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	e.frameCount = 0
	e.closed = false
	e.stderr.Reset()

	tmpFile, err := os.CreateTemp("", "h264encode_*.mp4")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	e.tempPath = tmpFile.Name()
	tmpFile.Close()

	e.cmd = exec.Command(e.ffmpegPath, Args(width, height, fps, opts, e.tempPath)...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		os.Remove(e.tempPath)
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		os.Remove(e.tempPath)
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return nil
}

// EncodeFrame writes one frame. Frames are shown at the constant rate given
// to Begin, so timestampMs is informational.
func (e *Encoder) EncodeFrame(img image.Image, timestampMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return ErrNotInitialized
	}

	bounds := img.Bounds()
	if bounds.Dx() != e.width || bounds.Dy() != e.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, bounds.Dx(), bounds.Dy(), e.width, e.height)
	}

	pix := e.frame.Pix
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == e.width*4 {
		pix = rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y):][:e.width*e.height*4]
	} else {
		draw.Draw(e.frame, e.frame.Bounds(), img, bounds.Min, draw.Src)
	}

	if _, err := e.stdin.Write(pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w\nstderr: %s", e.frameCount, err, e.stderr.String())
	}
	e.frameCount++
	return nil
}

// End closes the input, waits for ffmpeg, and returns the MP4 data.
func (e *Encoder) End() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil || e.closed {
		return nil, ErrNotInitialized
	}

	e.stdin.Close()
	e.stdin = nil
	e.closed = true
	defer func() {
		os.Remove(e.tempPath)
		e.tempPath = ""
	}()

	if err := e.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, e.stderr.String())
	}

	data, err := os.ReadFile(e.tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	return data, nil
}

// FrameCount returns the number of frames written so far.
func (e *Encoder) FrameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
