package h264encoder

import (
	"errors"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegbin"
)

var (
	// ErrNotInitialized is returned when encoder methods are called before initialization.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrFrameSize is returned when a frame does not match the size given to Begin.
	ErrFrameSize = errors.New("h264encoder: frame size mismatch")

	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = ffmpegbin.ErrNotFound
)
