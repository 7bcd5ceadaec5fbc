// Package mediaprobe reads video stream metadata. MP4 and MOV files are
// parsed in-process with mp4ff; other containers go through ffprobe.
package mediaprobe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Codec names reported in MediaInfo.Codec.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecUnknown = "unknown"
)

// DefaultTimeout bounds one ffprobe run when ctx has no deadline.
const DefaultTimeout = 30 * time.Second

// Prober implements ports.MediaProber.
type Prober struct {
	timeout time.Duration
	// ffprobe is replaceable in tests.
	ffprobe func(path string, timeout time.Duration) (string, error)
}

// New creates a prober.
func New() *Prober {
	return &Prober{timeout: DefaultTimeout, ffprobe: runFFprobe}
}

// Probe returns the stream metadata of the first video track.
func (p *Prober) Probe(ctx context.Context, path string) (ports.MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return ports.MediaInfo{}, err
	}

	if isISOBMFF(path) {
		info, err := ProbeMP4File(path)
		if err == nil && info.FrameRate > 0 && info.Width > 0 {
			return info, nil
		}
		// Fragmented or unusual files fall through to ffprobe.
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return ports.MediaInfo{}, context.DeadlineExceeded
		}
	}
	out, err := p.ffprobe(path, timeout)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseFFprobe([]byte(out))
}

func isISOBMFF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

var _ ports.MediaProber = (*Prober)(nil)
