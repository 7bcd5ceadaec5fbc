package pipeline

import (
	"fmt"
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/params"
)

// =============================================================================
// Format Types
// =============================================================================

// TagPadding is the white box drawn around the tag text.
type TagPadding struct {
	X           int `yaml:"x" json:"x"`
	Y           int `yaml:"y" json:"y"`
	ExtraBottom int `yaml:"extra_bottom" json:"extraBottom"`
}

// FormatSpec describes one primary output resolution.
type FormatSpec struct {
	Key             string     // Settings key, e.g. "1920x1080"
	Label           string     // Label used in file names, e.g. "WIDEFULLHD"
	Width           int        // Output width in pixels
	Height          int        // Output height in pixels
	DurationSeconds float64    // Output duration (default: 10)
	BumperPath      string     // Identity bumper clip
	VignettePath    string     // Vignette image, must carry alpha
	TagPadding      TagPadding // Tag-box padding for this canvas
}

// DerivedSpec describes a secondary output produced by resampling a primary
// render.
type DerivedSpec struct {
	Label           string
	Width           int
	Height          int
	DurationSeconds float64
}

// SharedAssets are the assets every format uses.
type SharedAssets struct {
	LogoPath string
	FontPath string
}

// =============================================================================
// Render Stage Types
// =============================================================================

// RenderInput contains everything needed to render one primary format.
type RenderInput struct {
	Format     FormatSpec
	Assets     SharedAssets
	MediaPath  string                  // User photo or video
	Params     params.RenderParameters // Merged and validated
	OutputDir  string
	RenderedAt time.Time // Drives the date in the output name
}

// RenderJobResult is the outcome of rendering one output file.
// Err is nil on success.
type RenderJobResult struct {
	Label      string
	BaseFormat string // Label of the primary format this output came from
	OutputPath string
	Frames     int
	Elapsed    time.Duration
	Err        error
}

// OK reports whether the job produced a file.
func (r RenderJobResult) OK() bool {
	return r.Err == nil
}

// String implements fmt.Stringer.
func (r RenderJobResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: error: %v", r.Label, r.Err)
	}
	return fmt.Sprintf("%s: %s (%d frames)", r.Label, r.OutputPath, r.Frames)
}

// =============================================================================
// Derive Stage Types
// =============================================================================

// DeriveInput contains a finished primary render and the outputs to derive
// from it.
type DeriveInput struct {
	Source     RenderJobResult
	Specs      []DerivedSpec
	Tag        string // Tag text used in output names
	OutputDir  string
	RenderedAt time.Time
}
