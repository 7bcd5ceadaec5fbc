package composite

import (
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/textlayout"
)

// titleRightMargin is kept clear to the right of wrapped title lines.
const titleRightMargin = 50

// ResolvePadding applies the per-request padding overrides.
func ResolvePadding(format pipeline.TagPadding, p params.RenderParameters) pipeline.TagPadding {
	if p.TagPadX > 0 {
		format.X = p.TagPadX
	}
	if p.TagPadY > 0 {
		format.Y = p.TagPadY
	}
	return format
}

// drawTag draws the tag inside a filled box. Text is positioned by the top
// of its line.
func (c *Compositor) drawTag(canvas ports.Canvas, fonts ports.FontLoader, p params.RenderParameters, format pipeline.TagPadding) error {
	if p.Tag == "" {
		return nil
	}
	face, err := fonts.Face(float64(p.TagFontSize))
	if err != nil {
		return err
	}
	pad := ResolvePadding(format, p)
	w, h := textlayout.Bounds(face, p.Tag)

	x, y := float64(p.TagX), float64(p.TagY)
	canvas.FillRect(
		x-float64(pad.X),
		y-float64(pad.Y),
		x+float64(w+pad.X),
		y+float64(h+pad.Y+pad.ExtraBottom),
		c.style.TagBoxColor,
	)
	canvas.DrawText(p.Tag, x, y+float64(textlayout.Ascent(face)), face, c.style.TagColor, nil)
	return nil
}

// drawTitle word-wraps the title and draws it line by line.
func (c *Compositor) drawTitle(canvas ports.Canvas, fonts ports.FontLoader, p params.RenderParameters, width int) error {
	if p.Title == "" {
		return nil
	}
	face, err := fonts.Face(float64(p.TitleFontSize))
	if err != nil {
		return err
	}

	maxWidth := width - p.TitleX - titleRightMargin
	step := textlayout.LineHeight(face) + p.TitleLineSpacing
	ascent := float64(textlayout.Ascent(face))

	y := p.TitleY
	for _, line := range textlayout.Wrap(face, p.Title, maxWidth, p.TitleTracking) {
		advances := textlayout.Advances(face, line, p.TitleTracking)
		canvas.DrawText(line, float64(p.TitleX), float64(y)+ascent, face, c.style.TitleColor, advances)
		y += step
	}
	return nil
}
