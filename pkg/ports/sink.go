package ports

import (
	"image"
)

// DebugSink receives intermediate images for troubleshooting a render.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveComposedFrame saves one finished frame of the given format.
	SaveComposedFrame(label string, index int, img image.Image) error

	// SaveMask saves a generated edge-fade mask.
	SaveMask(label string, mask image.Image) error

	// SaveParameters saves the merged render parameters as JSON.
	SaveParameters(label string, data []byte) error
}
