package mocks

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// FontLoader serves one fixed face at every size.
type FontLoader struct {
	FontFace font.Face // basicfont.Face7x13 when nil

	// Sizes records every requested size.
	Sizes []float64
}

func (m *FontLoader) Face(size float64) (font.Face, error) {
	m.Sizes = append(m.Sizes, size)
	if m.FontFace == nil {
		return basicfont.Face7x13, nil
	}
	return m.FontFace, nil
}

// Opener returns a font opener that ignores the path and serves m.
func (m *FontLoader) Opener() func(path string) (ports.FontLoader, error) {
	return func(path string) (ports.FontLoader, error) { return m, nil }
}

var _ ports.FontLoader = (*FontLoader)(nil)
