// Package textlayout measures and wraps text drawn with fixed letter
// tracking.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// referenceGlyph sets the line height of wrapped text.
const referenceGlyph = "A"

// advance returns the pen advance of r in whole pixels. Runes the face does
// not cover measure as the face's .notdef box, which is also what gets drawn.
func advance(face font.Face, r rune) int {
	adv, _ := face.GlyphAdvance(r)
	return adv.Round()
}

// Advances returns the pen advance to apply after each rune of text: the
// glyph advance plus tracking. The last rune gets no tracking.
func Advances(face font.Face, text string, tracking int) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = advance(face, r)
		if i < len(runes)-1 {
			out[i] += tracking
		}
	}
	return out
}

// Measure returns the width of text drawn with tracking pixels between
// characters. An empty string measures 0.
func Measure(face font.Face, text string, tracking int) int {
	width := 0
	for _, adv := range Advances(face, text, tracking) {
		width += adv
	}
	return width
}

// Wrap splits text into lines no wider than maxWidth, breaking only at
// whitespace. A word wider than maxWidth gets a line of its own. Empty text
// yields a single empty line.
func Wrap(face font.Face, text string, maxWidth, tracking int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		switch {
		case line == "":
			// An empty line always takes the next word.
			line = word
		case Measure(face, candidate, tracking) <= maxWidth:
			line = candidate
		default:
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}

// LineHeight returns the distance between the top of one line of text and
// the top of the next, before extra spacing: the face ascent plus the depth
// of the reference glyph below the baseline.
func LineHeight(face font.Face) int {
	bounds, _ := font.BoundString(face, referenceGlyph)
	descent := bounds.Max.Y
	if descent < 0 {
		descent = 0
	}
	return (face.Metrics().Ascent + descent).Ceil()
}

// Ascent returns the face ascent in whole pixels. Text positioned by its top
// edge is drawn on the baseline top+Ascent.
func Ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

// Bounds returns the ink box of text relative to its top-left origin: the
// right edge of the last glyph and the bottom of the lowest glyph, both
// measured from the top of the line.
func Bounds(face font.Face, text string) (width, height int) {
	if text == "" {
		return 0, 0
	}
	bounds, _ := font.BoundString(face, text)
	width = bounds.Max.X.Ceil()
	height = (face.Metrics().Ascent + maxFixed(bounds.Max.Y, 0)).Ceil()
	return width, height
}

func maxFixed(a, b fixed.Int26_6) fixed.Int26_6 {
	if a > b {
		return a
	}
	return b
}
