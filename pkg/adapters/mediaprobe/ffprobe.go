package mediaprobe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegbin"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

func runFFprobe(path string, timeout time.Duration) (string, error) {
	if _, err := ffmpegbin.FindProbe(); err != nil {
		return "", err
	}
	return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{"select_streams": "v:0"})
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseFFprobe extracts the first video stream from ffprobe JSON output.
func parseFFprobe(data []byte) (ports.MediaInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info := ports.MediaInfo{
			Codec:  s.CodecName,
			Width:  s.Width,
			Height: s.Height,
		}
		if info.Codec == "" {
			info.Codec = CodecUnknown
		}

		info.FrameRate = parseRate(s.AvgFrameRate)
		if info.FrameRate == 0 {
			info.FrameRate = parseRate(s.RFrameRate)
		}

		duration := parseSeconds(s.Duration)
		if duration == 0 {
			duration = parseSeconds(out.Format.Duration)
		}
		info.DurationMs = int(math.Round(duration * 1000))

		if n, err := strconv.Atoi(s.NbFrames); err == nil {
			info.FrameCount = n
		} else if duration > 0 && info.FrameRate > 0 {
			// WebM does not store a frame count.
			info.FrameCount = int(math.Round(duration * info.FrameRate))
		}
		return info, nil
	}
	return ports.MediaInfo{}, fmt.Errorf("no video stream found")
}

// parseRate parses "30000/1001" or "25". Invalid or zero rates give 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
