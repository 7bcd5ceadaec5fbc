package ports

import (
	"image"
)

// VideoEncoder abstracts video encoding operations.
// An encoder instance encodes exactly one video; use a VideoEncoderFactory to
// get a fresh one per output.
type VideoEncoder interface {
	// Begin initializes the encoder with the specified dimensions and frame rate.
	Begin(width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame encodes a single frame at the specified timestamp.
	EncodeFrame(img image.Image, timestampMs int) error

	// End finalizes encoding and returns the MP4 data.
	End() ([]byte, error)
}

// VideoEncoderFactory creates a new encoder for each output file.
type VideoEncoderFactory func() VideoEncoder

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Bitrate int    // Target bitrate in kbps, 0 for CRF only
	Quality int    // x264 CRF: 0-51 (lower is higher quality)
	Preset  string // x264 preset, e.g. "fast"
}
