package render

import (
	"errors"
	"image"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// HoldReader reads frames by index from a source, clamping past the end to
// the last decodable frame.
type HoldReader struct {
	src  ports.FrameSource
	last image.Image
}

// NewHoldReader wraps src.
func NewHoldReader(src ports.FrameSource) *HoldReader {
	return &HoldReader{src: src}
}

// At returns frame index, or the last frame when the source is shorter.
// A source with no frames at all returns ports.ErrFrameOutOfRange.
func (r *HoldReader) At(index int) (image.Image, error) {
	if r.src.IsStill() {
		if r.last == nil {
			img, err := r.src.Frame(0)
			if err != nil {
				return nil, err
			}
			r.last = img
		}
		return r.last, nil
	}

	if n := r.src.FrameCount(); n > 0 && index >= n {
		index = n - 1
	}
	img, err := r.src.Frame(index)
	if errors.Is(err, ports.ErrFrameOutOfRange) && r.last != nil {
		// The declared count can overstate what decodes.
		return r.last, nil
	}
	if err != nil {
		return nil, err
	}
	r.last = img
	return img, nil
}
