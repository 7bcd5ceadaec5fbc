// Package composite builds output frames from the fixed stack of template
// layers.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/edgefade"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Bumper timing in seconds.
const (
	BumperHoldSeconds = 3.0
	BumperFadeSeconds = 0.5
)

// Style holds the brand colours of the text layers.
type Style struct {
	TagColor    color.Color
	TagBoxColor color.Color
	TitleColor  color.Color
}

// DefaultStyle returns the brand colours.
func DefaultStyle() Style {
	return Style{
		TagColor:    color.RGBA{R: 0x31, G: 0x55, B: 0xA1, A: 0xFF},
		TagBoxColor: color.White,
		TitleColor:  color.White,
	}
}

// FrameInput is everything needed to build one frame.
type FrameInput struct {
	Source   image.Image  // Decoded frame of the user media
	Bumper   image.Image  // nil skips the cross-fade
	Vignette *image.NRGBA // From PrepareVignette
	Logo     image.Image  // nil skips the logo layer
	Fonts    ports.FontLoader

	Index     int
	FrameRate float64
	Params    params.RenderParameters
	Padding   pipeline.TagPadding
	Width     int
	Height    int
}

// Compositor renders frames. It is safe for concurrent use.
type Compositor struct {
	raster ports.Raster
	style  Style

	mu   sync.Mutex
	mask *cachedMask
}

type maskKey struct {
	width, height int
	opts          edgefade.Options
}

type cachedMask struct {
	key  maskKey
	mask *image.Gray
}

// New creates a compositor.
func New(raster ports.Raster, style Style) *Compositor {
	return &Compositor{raster: raster, style: style}
}

// PrepareVignette checks that the vignette carries alpha and resizes it to
// the output size. A vignette without alpha is a configuration error.
func (c *Compositor) PrepareVignette(v ports.DecodedImage, width, height int) (*image.NRGBA, error) {
	if v.Image == nil || !v.HasAlpha {
		return nil, apperr.Configuration("composite.vignette", "vignette mask has no alpha channel")
	}
	return c.raster.Resize(v.Image, width, height, ports.InterpolationLinear), nil
}

// BumperOpacity returns the bumper opacity t seconds into the clip: opaque
// for the hold, then a linear fade to transparent.
func BumperOpacity(t float64) float64 {
	switch {
	case t <= BumperHoldSeconds:
		return 1
	case t >= BumperHoldSeconds+BumperFadeSeconds:
		return 0
	default:
		return 1 - (t-BumperHoldSeconds)/BumperFadeSeconds
	}
}

// BlurKernel turns the blur setting into an odd kernel size of at least 1.
func BlurKernel(amount int) int {
	k := max(1, amount)
	if k%2 == 0 {
		k++
	}
	return k
}

// RenderFrame composes one output frame of exactly Width x Height.
func (c *Compositor) RenderFrame(in FrameInput) (*image.RGBA, error) {
	if in.Source == nil {
		return nil, fmt.Errorf("render frame %d: no source image", in.Index)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return nil, fmt.Errorf("render frame %d: invalid size %dx%d", in.Index, in.Width, in.Height)
	}
	p := in.Params
	canvas := image.NewRGBA(image.Rect(0, 0, in.Width, in.Height))

	// Backdrop
	backdrop := c.raster.Resize(in.Source, in.Width, in.Height, ports.InterpolationLinear)
	backdrop = c.raster.Blur(backdrop, BlurKernel(p.BackgroundBlur))
	draw.Draw(canvas, canvas.Bounds(), backdrop, image.Point{}, draw.Src)
	opaque(canvas)

	// Foreground
	sb := in.Source.Bounds()
	fgW := int(math.Round(float64(sb.Dx()) * p.ForegroundScale))
	fgH := int(math.Round(float64(sb.Dy()) * p.ForegroundScale))
	if fgW > 0 && fgH > 0 {
		fg := c.raster.Resize(in.Source, fgW, fgH, ports.InterpolationArea)
		if p.MaskIntensity > 0 {
			edgefade.Apply(fg, c.edgeMask(fgW, fgH, edgefade.Options{
				RotationDegrees: p.MaskRotation,
				OffsetPixels:    p.MaskOffsetX,
				Intensity:       p.MaskIntensity,
			}))
		}
		x := (in.Width-fgW)/2 + p.ForegroundX
		y := (in.Height-fgH)/2 + p.ForegroundY
		alphaBlendClipped(canvas, fg, x, y)
	}

	// Vignette
	if in.Vignette != nil {
		v := in.Vignette
		if v.Bounds().Dx() != in.Width || v.Bounds().Dy() != in.Height {
			v = c.raster.Resize(v, in.Width, in.Height, ports.InterpolationLinear)
		}
		multiplyVignette(canvas, v)
	}

	// Logo
	if in.Logo != nil {
		lb := in.Logo.Bounds()
		lw := int(math.Round(float64(lb.Dx()) * p.LogoScale))
		lh := int(math.Round(float64(lb.Dy()) * p.LogoScale))
		if lw > 0 && lh > 0 {
			mode := ports.InterpolationLinear
			if p.LogoScale < 1 {
				mode = ports.InterpolationArea
			}
			alphaBlendClipped(canvas, c.raster.Resize(in.Logo, lw, lh, mode), p.LogoX, p.LogoY)
		}
	}

	// Text
	if in.Fonts != nil {
		text := c.raster.NewCanvas(canvas)
		if err := c.drawTag(text, in.Fonts, p, in.Padding); err != nil {
			return nil, fmt.Errorf("render frame %d: %w", in.Index, err)
		}
		if err := c.drawTitle(text, in.Fonts, p, in.Width); err != nil {
			return nil, fmt.Errorf("render frame %d: %w", in.Index, err)
		}
	}

	// Bumper
	if in.Bumper != nil {
		fps := in.FrameRate
		if fps <= 0 {
			fps = params.Defaults().FrameRate
		}
		alpha := BumperOpacity(float64(in.Index) / fps)
		if alpha > 0 {
			crossFade(canvas, c.fit(in.Bumper, in.Width, in.Height), alpha)
		}
	}

	return canvas, nil
}

// fit returns img as an RGBA image of exactly width x height.
func (c *Compositor) fit(img image.Image, width, height int) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b == image.Rect(0, 0, width, height) {
		return rgba
	}
	if b.Dx() != width || b.Dy() != height {
		img = c.raster.Resize(img, width, height, ports.InterpolationLinear)
		b = img.Bounds()
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// edgeMask returns the fade mask, reusing the previous one when nothing
// changed. Within a render every frame asks for the same mask.
func (c *Compositor) edgeMask(width, height int, opts edgefade.Options) *image.Gray {
	key := maskKey{width: width, height: height, opts: opts}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mask != nil && c.mask.key == key {
		return c.mask.mask
	}
	m := edgefade.Generate(c.raster, width, height, opts)
	c.mask = &cachedMask{key: key, mask: m}
	return m
}

// EdgeMask exposes the mask the foreground layer would use for p at the
// given foreground size. Used for debug output.
func (c *Compositor) EdgeMask(width, height int, p params.RenderParameters) *image.Gray {
	return c.edgeMask(width, height, edgefade.Options{
		RotationDegrees: p.MaskRotation,
		OffsetPixels:    p.MaskOffsetX,
		Intensity:       p.MaskIntensity,
	})
}

func opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
