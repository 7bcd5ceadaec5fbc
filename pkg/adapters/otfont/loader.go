// Package otfont loads OpenType faces for the text layers. When the
// configured TTF cannot be read it falls back to the embedded Go Regular
// typeface.
package otfont

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Loader implements ports.FontLoader for a single typeface. Faces are cached
// per size.
type Loader struct {
	parsed   *opentype.Font
	fallback bool

	mu    sync.Mutex
	faces map[float64]font.Face
}

// Load parses the font at path through fs. An empty path or an unreadable
// file selects the embedded fallback; a file that is not a font is an error.
func Load(fs ports.FileSystem, path string) (*Loader, error) {
	data, fallback := readFont(fs, path)
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return &Loader{
		parsed:   parsed,
		fallback: fallback,
		faces:    make(map[float64]font.Face),
	}, nil
}

// Default returns a loader for the embedded Go Regular font.
func Default() *Loader {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err) // embedded data
	}
	return &Loader{parsed: parsed, fallback: true, faces: make(map[float64]font.Face)}
}

func readFont(fs ports.FileSystem, path string) ([]byte, bool) {
	if path == "" || fs == nil {
		return goregular.TTF, true
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return goregular.TTF, true
	}
	return data, false
}

// UsingFallback reports whether the embedded font was substituted.
func (l *Loader) UsingFallback() bool {
	return l.fallback
}

// Face returns a face rendering size pixels per em.
func (l *Loader) Face(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if face, ok := l.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(l.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	l.faces[size] = face
	return face, nil
}

var _ ports.FontLoader = (*Loader)(nil)
