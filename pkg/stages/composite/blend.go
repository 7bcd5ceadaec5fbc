package composite

import (
	"image"
)

// alphaBlendClipped composites src over dst with its top-left corner at
// (x, y). Only the overlap of the two rectangles is touched, so src may lie
// partly or wholly outside dst.
func alphaBlendClipped(dst *image.RGBA, src *image.NRGBA, x, y int) {
	sb := src.Bounds()
	r := image.Rect(x, y, x+sb.Dx(), y+sb.Dy()).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	for py := r.Min.Y; py < r.Max.Y; py++ {
		di := dst.PixOffset(r.Min.X, py)
		si := src.PixOffset(sb.Min.X+r.Min.X-x, sb.Min.Y+py-y)
		for px := r.Min.X; px < r.Max.X; px++ {
			a := uint32(src.Pix[si+3])
			switch a {
			case 0:
			case 0xff:
				copy(dst.Pix[di:di+3], src.Pix[si:si+3])
			default:
				for ch := 0; ch < 3; ch++ {
					s := uint32(src.Pix[si+ch])
					d := uint32(dst.Pix[di+ch])
					dst.Pix[di+ch] = uint8((s*a + d*(255-a) + 127) / 255)
				}
			}
			dst.Pix[di+3] = 0xff
			di += 4
			si += 4
		}
	}
}

// multiplyVignette darkens dst by the vignette colour where the vignette is
// opaque: out = c*m*a + c*(1-a) with every term normalized to [0,1].
// v must be the size of dst.
func multiplyVignette(dst *image.RGBA, v *image.NRGBA) {
	b := dst.Bounds()
	if v.Bounds().Dx() != b.Dx() || v.Bounds().Dy() != b.Dy() {
		return
	}
	const scale = 255 * 255
	for y := 0; y < b.Dy(); y++ {
		di := y * dst.Stride
		vi := y * v.Stride
		for x := 0; x < b.Dx(); x++ {
			a := uint32(v.Pix[vi+3])
			if a != 0 {
				for ch := 0; ch < 3; ch++ {
					c := uint32(dst.Pix[di+ch])
					m := uint32(v.Pix[vi+ch])
					dst.Pix[di+ch] = uint8((c*m*a + c*(255-a)*255 + scale/2) / scale)
				}
			}
			di += 4
			vi += 4
		}
	}
}

// crossFade blends top over dst with a uniform opacity in [0,1]. Both
// images must be the same size.
func crossFade(dst, top *image.RGBA, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha >= 1 {
		copy(dst.Pix, top.Pix)
		return
	}
	a := uint32(alpha*65536 + 0.5)
	inv := 65536 - a
	for i := 0; i < len(dst.Pix) && i < len(top.Pix); i++ {
		dst.Pix[i] = uint8((uint32(top.Pix[i])*a + uint32(dst.Pix[i])*inv + 1<<15) >> 16)
	}
}
