package ports

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
)

// Interpolation selects the resampling filter used by Raster.Resize.
type Interpolation int

const (
	// InterpolationNearest picks the closest source pixel.
	InterpolationNearest Interpolation = iota
	// InterpolationLinear blends the neighbouring source pixels.
	InterpolationLinear
	// InterpolationArea averages every source pixel under the target pixel.
	// Preferred for downscaling.
	InterpolationArea
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// DecodedImage is a decoded still image together with what the file declared
// about transparency.
type DecodedImage struct {
	Image image.Image
	// HasAlpha is true when the encoded file carried an alpha channel,
	// regardless of whether any pixel is actually transparent.
	HasAlpha bool
}

// MaskRotator rotates single-channel masks.
type MaskRotator interface {
	// RotateMask rotates mask about its center by degrees (counter-clockwise)
	// using linear sampling. The result has the same bounds as mask.
	RotateMask(mask *image.Gray, degrees float64) *image.Gray
}

// Raster abstracts pixel-buffer operations used by the compositor.
type Raster interface {
	MaskRotator

	// DecodeImage decodes an encoded still image (JPEG, PNG, GIF, WebP).
	DecodeImage(data []byte) (DecodedImage, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// Resize resamples img to width x height.
	Resize(img image.Image, width, height int, mode Interpolation) *image.NRGBA

	// Blur applies a Gaussian blur with an odd kernel size. A kernel of 1 or
	// less returns an unblurred copy.
	Blur(img image.Image, kernel int) *image.NRGBA

	// NewCanvas returns a canvas that draws directly into dst.
	NewCanvas(dst *image.RGBA) Canvas
}

// Canvas provides the drawing operations needed for text layers.
type Canvas interface {
	// FillRect fills the rectangle spanning (x0,y0)-(x1,y1).
	FillRect(x0, y0, x1, y1 float64, c color.Color)

	// DrawText draws text rune by rune starting at x on the given baseline.
	// advances holds the pen advance applied after each rune; when nil the
	// face's own advances are used.
	DrawText(text string, x, baseline float64, face font.Face, c color.Color, advances []int)
}

// FontLoader provides font faces of a single typeface at arbitrary sizes.
type FontLoader interface {
	// Face returns a face rasterizing at size pixels per em.
	Face(size float64) (font.Face, error)
}
