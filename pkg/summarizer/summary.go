// Package summarizer produces a human-readable report of a batch run.
package summarizer

import (
	"time"

	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
)

// Output kinds.
const (
	KindPrimary = "primary"
	KindDerived = "derived"
)

// Summary contains everything collected during one batch.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	BatchID     string

	// Content that went into the render
	Content ContentInfo

	// Encoder and timing settings
	Settings Settings

	// One entry per attempted output, failures included
	Outputs []OutputInfo

	// Bundle
	Archive ArchiveInfo

	Elapsed time.Duration
}

// ContentInfo describes the texts and media used.
type ContentInfo struct {
	Tag       string
	Title     string
	MediaFile string
}

// Settings contains the render configuration.
type Settings struct {
	FrameRate float64
	CRF       int
	Preset    string
}

// OutputInfo describes one output file.
type OutputInfo struct {
	Kind       string
	Label      string
	BaseFormat string
	Path       string
	Frames     int
	FileSize   int64
	Elapsed    time.Duration
	Error      string
}

// OK reports whether the output was produced.
func (o OutputInfo) OK() bool {
	return o.Error == ""
}

// ArchiveInfo describes the zip bundle.
type ArchiveInfo struct {
	Path string
	URL  string // Set when the archive was published
}

// Counts returns the number of produced and failed outputs.
func (s *Summary) Counts() (ok, failed int) {
	for _, o := range s.Outputs {
		if o.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithBatch sets the batch id and time.
func (b *Builder) WithBatch(id string, at time.Time) *Builder {
	b.summary.BatchID = id
	b.summary.GeneratedAt = at
	return b
}

// WithContent sets the rendered texts and media.
func (b *Builder) WithContent(tag, title, mediaFile string) *Builder {
	b.summary.Content = ContentInfo{
		Tag:       tag,
		Title:     title,
		MediaFile: mediaFile,
	}
	return b
}

// WithSettings sets render settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddResult appends one output. size is the file size, 0 if unknown.
func (b *Builder) AddResult(kind string, r pipeline.RenderJobResult, size int64) *Builder {
	info := OutputInfo{
		Kind:       kind,
		Label:      r.Label,
		BaseFormat: r.BaseFormat,
		Path:       r.OutputPath,
		Frames:     r.Frames,
		FileSize:   size,
		Elapsed:    r.Elapsed,
	}
	if r.Err != nil {
		info.Error = r.Err.Error()
	}
	b.summary.Outputs = append(b.summary.Outputs, info)
	return b
}

// WithArchive sets the bundle location.
func (b *Builder) WithArchive(path, url string) *Builder {
	b.summary.Archive = ArchiveInfo{Path: path, URL: url}
	return b
}

// WithElapsed sets the total batch time.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
