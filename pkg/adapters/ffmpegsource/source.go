// Package ffmpegsource decodes video files into RGBA frames by reading raw
// video from an ffmpeg process.
package ffmpegsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegbin"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Opener implements ports.MediaOpener for video files.
type Opener struct {
	prober ports.MediaProber
}

// NewOpener creates an opener that reads stream metadata through prober.
func NewOpener(prober ports.MediaProber) *Opener {
	return &Opener{prober: prober}
}

// Open probes path and prepares a decoder. ffmpeg starts on the first frame
// request.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	info, err := o.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("probe %s: no frame size", path)
	}
	ffmpegPath, err := ffmpegbin.Find()
	if err != nil {
		return nil, err
	}
	return &Source{
		ctx:        ctx,
		ffmpegPath: ffmpegPath,
		path:       path,
		info:       info,
		frameSize:  info.Width * info.Height * 4,
		total:      -1,
	}, nil
}

var _ ports.MediaOpener = (*Opener)(nil)

// DecodeArgs returns the ffmpeg arguments that write path to stdout as raw
// RGBA frames of width x height.
func DecodeArgs(path string, width, height int) []string {
	return ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"f":        "rawvideo",
			"pix_fmt":  "rgba",
			"s":        fmt.Sprintf("%dx%d", width, height),
			"an":       "",
			"loglevel": "error",
		}).
		GetArgs()
}

// Source is a video decoded frame by frame. Frames are read in order;
// asking for an earlier frame than the last one restarts decoding.
type Source struct {
	ctx        context.Context
	ffmpegPath string
	path       string
	info       ports.MediaInfo
	frameSize  int

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	reader  *bufio.Reader
	stderr  bytes.Buffer
	pos     int         // index of the next frame on the pipe
	last    *image.RGBA // frame pos-1
	total   int         // decoded frame count once the end was seen, else -1
	scratch []byte
}

func (s *Source) Width() int         { return s.info.Width }
func (s *Source) Height() int        { return s.info.Height }
func (s *Source) FrameRate() float64 { return s.info.FrameRate }
func (s *Source) IsStill() bool      { return false }

// FrameCount returns the decoded count once the end has been reached, and
// the container's declared count before that.
func (s *Source) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total >= 0 {
		return s.total
	}
	return s.info.FrameCount
}

// Frame returns frame index. Past the end it returns
// ports.ErrFrameOutOfRange.
func (s *Source) Frame(index int) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || (s.total >= 0 && index >= s.total) {
		return nil, ports.ErrFrameOutOfRange
	}
	if s.last != nil && index == s.pos-1 {
		return s.last, nil
	}
	if s.cmd == nil || index < s.pos {
		if err := s.restart(); err != nil {
			return nil, err
		}
	}

	for s.pos < index {
		if err := s.skip(); err != nil {
			return nil, err
		}
	}
	img, err := s.read()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Next returns the frame after the last one returned, or io.EOF.
func (s *Source) Next() (image.Image, error) {
	s.mu.Lock()
	next := s.pos
	s.mu.Unlock()

	img, err := s.Frame(next)
	if errors.Is(err, ports.ErrFrameOutOfRange) {
		return nil, io.EOF
	}
	return img, err
}

// Close stops ffmpeg.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	return nil
}

func (s *Source) restart() error {
	s.stop()
	s.stderr.Reset()

	cmd := exec.CommandContext(s.ctx, s.ffmpegPath, DecodeArgs(s.path, s.info.Width, s.info.Height)...)
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, s.frameSize)
	s.pos = 0
	s.last = nil
	return nil
}

func (s *Source) stop() {
	if s.cmd == nil {
		return
	}
	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
	s.reader = nil
}

// read decodes the frame at s.pos into a new image.
func (s *Source) read() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	if err := s.fill(img.Pix); err != nil {
		return nil, err
	}
	s.last = img
	return img, nil
}

// skip discards the frame at s.pos.
func (s *Source) skip() error {
	if s.scratch == nil {
		s.scratch = make([]byte, s.frameSize)
	}
	return s.fill(s.scratch)
}

func (s *Source) fill(buf []byte) error {
	_, err := io.ReadFull(s.reader, buf)
	switch {
	case err == nil:
		s.pos++
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.total = s.pos
		s.stop()
		if s.total == 0 {
			return fmt.Errorf("decode %s: no frames: %s", s.path, bytes.TrimSpace(s.stderr.Bytes()))
		}
		return ports.ErrFrameOutOfRange
	default:
		return fmt.Errorf("read frame %d: %w", s.pos, err)
	}
}

var _ ports.FrameSource = (*Source)(nil)
