// Package edgefade generates the soft-edge mask used to feather the
// foreground media into the blurred backdrop.
package edgefade

import (
	"image"
	"math"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Options controls the fade line.
type Options struct {
	// RotationDegrees rotates the fade line about the mask center.
	RotationDegrees float64
	// OffsetPixels moves the fade center horizontally before rotation.
	OffsetPixels int
	// Intensity in [0,1] sets the ramp width as a fraction of twice the
	// mask width. 0 disables the fade.
	Intensity float64
}

// Generate returns a width x height mask where 255 keeps the pixel and 0
// cuts it. Left of the fade band the mask is 255, across the band it ramps
// linearly down to 0, and right of it it is 0. The pattern is laid out on a
// square as large as the diagonal so rotation never exposes its corners,
// then rotated and cropped to the center.
func Generate(rot ports.MaskRotator, width, height int, opts Options) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, max(width, 0), max(height, 0)))
	intensity := math.Min(math.Max(opts.Intensity, 0), 1)
	if intensity == 0 || width <= 0 || height <= 0 {
		fill(mask, 255)
		return mask
	}

	diagonal := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	square := image.NewGray(image.Rect(0, 0, diagonal, diagonal))

	fadeWidth := int(math.Floor(float64(width) * intensity * 2))
	fadeCenter := diagonal/2 + opts.OffsetPixels
	start := fadeCenter - fadeWidth/2

	row := make([]uint8, diagonal)
	for x := range row {
		row[x] = rampValue(x, start, fadeWidth)
	}
	for y := 0; y < diagonal; y++ {
		copy(square.Pix[y*square.Stride:], row)
	}

	if opts.RotationDegrees != 0 && rot != nil {
		square = rot.RotateMask(square, opts.RotationDegrees)
	}

	x0 := (diagonal - width) / 2
	y0 := (diagonal - height) / 2
	for y := 0; y < height; y++ {
		src := square.Pix[(y0+y)*square.Stride+x0 : (y0+y)*square.Stride+x0+width]
		copy(mask.Pix[y*mask.Stride:], src)
	}
	return mask
}

// rampValue returns the mask value of column x for a ramp starting at start
// and spanning fadeWidth columns.
func rampValue(x, start, fadeWidth int) uint8 {
	switch {
	case x < start:
		return 255
	case x >= start+fadeWidth:
		return 0
	case fadeWidth <= 1:
		return 255
	default:
		// The ramp runs from 255 on its first column to 0 on its last.
		t := float64(x-start) / float64(fadeWidth-1)
		return uint8(math.Round(255 * (1 - t)))
	}
}

func fill(m *image.Gray, v uint8) {
	for i := range m.Pix {
		m.Pix[i] = v
	}
}

// Apply lowers the alpha of img to the mask wherever the mask is smaller, so
// existing transparency is kept. img and mask must have the same size.
func Apply(img *image.NRGBA, mask *image.Gray) {
	b := img.Bounds()
	mb := mask.Bounds()
	if b.Dx() != mb.Dx() || b.Dy() != mb.Dy() {
		return
	}
	for y := 0; y < b.Dy(); y++ {
		pi := y * img.Stride
		mi := y * mask.Stride
		for x := 0; x < b.Dx(); x++ {
			if m := mask.Pix[mi+x]; m < img.Pix[pi+x*4+3] {
				img.Pix[pi+x*4+3] = m
			}
		}
	}
}

// Mean returns the average mask value.
func Mean(m *image.Gray) float64 {
	b := m.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		for _, v := range m.Pix[y*m.Stride : y*m.Stride+b.Dx()] {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(b.Dx()*b.Dy())
}
