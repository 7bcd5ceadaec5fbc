// Package ggrenderer implements the raster and drawing ports with gg,
// imaging and x/image.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // registers GIF decoding
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp" // registers WebP decoding

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Renderer implements ports.Raster.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// DecodeImage decodes JPEG, PNG, GIF or WebP data.
func (r *Renderer) DecodeImage(data []byte) (ports.DecodedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ports.DecodedImage{}, err
	}
	return ports.DecodedImage{Image: img, HasAlpha: hasAlphaChannel(img)}, nil
}

// hasAlphaChannel reports whether the decoder produced a pixel format with
// alpha. The standard decoders return RGBA, Gray or YCbCr only for files
// without an alpha channel.
func hasAlphaChannel(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16, *image.NYCbCrA:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// Resize resamples img to width x height.
func (r *Renderer) Resize(img image.Image, width, height int, mode ports.Interpolation) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, filterFor(mode))
}

func filterFor(mode ports.Interpolation) imaging.ResampleFilter {
	switch mode {
	case ports.InterpolationNearest:
		return imaging.NearestNeighbor
	case ports.InterpolationArea:
		return imaging.Box
	default:
		return imaging.Linear
	}
}

// Blur applies a Gaussian blur. The kernel size is converted to a sigma the
// same way OpenCV derives one when only the size is given.
func (r *Renderer) Blur(img image.Image, kernel int) *image.NRGBA {
	if kernel <= 1 {
		return imaging.Clone(img)
	}
	return imaging.Blur(img, SigmaForKernel(kernel))
}

// SigmaForKernel returns the Gaussian sigma matching an odd kernel size.
func SigmaForKernel(kernel int) float64 {
	return 0.3*((float64(kernel)-1)*0.5-1) + 0.8
}

// RotateMask rotates mask about its center with bilinear sampling. Pixels
// that map outside the source are 0.
func (r *Renderer) RotateMask(mask *image.Gray, degrees float64) *image.Gray {
	b := mask.Bounds()
	dst := image.NewGray(b)
	if math.Mod(degrees, 360) == 0 {
		copy(dst.Pix, mask.Pix)
		return dst
	}

	theta := degrees * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	// Source-to-destination affine transform, counter-clockwise on screen.
	s2d := f64.Aff3{
		cos, sin, (1-cos)*cx - sin*cy,
		-sin, cos, sin*cx + (1-cos)*cy,
	}
	draw.BiLinear.Transform(dst, s2d, mask, b, draw.Src, nil)
	return dst
}

// NewCanvas returns a canvas drawing into dst.
func (r *Renderer) NewCanvas(dst *image.RGBA) ports.Canvas {
	return &Canvas{dc: gg.NewContextForRGBA(dst)}
}

// Ensure Renderer implements ports.Raster
var _ ports.Raster = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.
type Canvas struct {
	dc *gg.Context
}

// FillRect fills the rectangle spanning (x0,y0)-(x1,y1).
func (c *Canvas) FillRect(x0, y0, x1, y1 float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	c.dc.Fill()
}

// DrawText draws text rune by rune on the baseline.
func (c *Canvas) DrawText(text string, x, baseline float64, face font.Face, col color.Color, advances []int) {
	c.dc.SetFontFace(face)
	c.dc.SetColor(col)

	i := 0
	for _, r := range text {
		s := string(r)
		c.dc.DrawString(s, x, baseline)
		if advances != nil && i < len(advances) {
			x += float64(advances[i])
		} else {
			w, _ := c.dc.MeasureString(s)
			x += w
		}
		i++
	}
}

var _ ports.Canvas = (*Canvas)(nil)
