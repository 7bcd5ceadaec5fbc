// Package orchestrator runs a render batch: every primary format, the
// derived outputs, and the archive.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/metrics"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/session"
	"github.com/sidneyts/NOTICIAS/pkg/summarizer"
)

// ArchiveLayout is the time layout of archive names.
const ArchiveLayout = "02012006_1504"

// Config contains the static batch configuration.
type Config struct {
	Formats   []pipeline.FormatSpec
	Assets    pipeline.SharedAssets
	Derived   map[string][]pipeline.DerivedSpec // Keyed by primary label
	OutputDir string

	// Encoder settings, recorded in reports only.
	CRF    int
	Preset string
}

// Retainer schedules produced files for deletion.
type Retainer interface {
	Track(path string, ttl time.Duration)
}

// BatchRequest describes one batch.
type BatchRequest struct {
	Session   *session.Session // Persisted settings, empty when nil
	MediaPath string
	Overrides map[string]any // Request values, highest precedence

	// Formats restricts the batch to these format keys. Empty renders all.
	Formats []string
}

// BatchResult contains the ordered results of a batch.
type BatchResult struct {
	ID          string
	StartedAt   time.Time
	Primary     []pipeline.RenderJobResult
	Derived     []pipeline.RenderJobResult
	ArchivePath string // Empty when nothing was produced
	ArchiveURL  string // Set when the archive was published
	ReportPath  string
	Elapsed     time.Duration
}

// Results returns primary results followed by derived results.
func (r BatchResult) Results() []pipeline.RenderJobResult {
	out := make([]pipeline.RenderJobResult, 0, len(r.Primary)+len(r.Derived))
	out = append(out, r.Primary...)
	return append(out, r.Derived...)
}

// Produced returns the paths of every file written.
func (r BatchResult) Produced() []string {
	var paths []string
	for _, res := range r.Results() {
		if res.OK() {
			paths = append(paths, res.OutputPath)
		}
	}
	return paths
}

// Failed returns the number of failed outputs.
func (r BatchResult) Failed() int {
	n := 0
	for _, res := range r.Results() {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher uploads every archive.
func WithPublisher(p ports.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithRetention registers every produced file for deletion.
func WithRetention(r Retainer) Option {
	return func(o *Orchestrator) { o.retention = r }
}

// WithReport writes a batch report next to each archive.
func WithReport(w *summarizer.Writer) Option {
	return func(o *Orchestrator) { o.report = w }
}

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithIDs sets the batch id generator.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	config      Config
	renderStage pipeline.Stage[pipeline.RenderInput, pipeline.RenderJobResult]
	deriveStage pipeline.Stage[pipeline.DeriveInput, []pipeline.RenderJobResult]
	archiver    ports.Archiver
	fs          ports.FileSystem
	logger      ports.Logger

	publisher ports.Publisher
	retention Retainer
	report    *summarizer.Writer
	clock     func() time.Time
	newID     func() string
}

// New creates a new Orchestrator.
func New(
	config Config,
	renderStage pipeline.Stage[pipeline.RenderInput, pipeline.RenderJobResult],
	deriveStage pipeline.Stage[pipeline.DeriveInput, []pipeline.RenderJobResult],
	archiver ports.Archiver,
	fs ports.FileSystem,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		config:      config,
		renderStage: renderStage,
		deriveStage: deriveStage,
		archiver:    archiver,
		fs:          fs,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ArchiveName returns the archive file name for a batch started at t.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("Urbnews_Videos_%s.zip", t.Format(ArchiveLayout))
}

// Run renders every selected format in order, derives secondary outputs
// from the successful ones and bundles everything produced.
//
// A failed format is recorded in its result and the batch continues. An
// unreadable user media file or a cancelled context stops the batch and is
// returned together with the results gathered so far.
func (o *Orchestrator) Run(ctx context.Context, req BatchRequest) (result BatchResult, err error) {
	start := o.clock()
	result = BatchResult{ID: o.newID(), StartedAt: start}
	defer func() {
		result.Elapsed = o.clock().Sub(start)
		metrics.ObserveBatch(result.Elapsed)
	}()

	formats, err := o.selectFormats(req.Formats)
	if err != nil {
		return result, err
	}
	sess := req.Session
	if sess == nil {
		sess = session.New()
	}

	o.logger.Info("Starting batch %s: %d formats", result.ID, len(formats))

	if err := o.fs.MkdirAll(o.config.OutputDir); err != nil {
		return result, apperr.IO(err, "batch.output", "create %s", o.config.OutputDir)
	}

	// 1. Primary formats
	used := make(map[string]params.RenderParameters, len(formats))
	for i, f := range formats {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		o.logger.Info("Rendering format %s (%d/%d)", f.Label, i+1, len(formats))

		p, err := sess.Parameters(f.Key, req.Overrides)
		if err != nil {
			o.logger.Warn("Format %s failed: %v", f.Label, err)
			result.Primary = append(result.Primary, pipeline.RenderJobResult{
				Label: f.Label, BaseFormat: f.Label, Err: fmt.Errorf("parameters: %w", err),
			})
			continue
		}
		used[f.Label] = p

		res, err := o.renderStage.Execute(ctx, pipeline.RenderInput{
			Format:     f,
			Assets:     o.config.Assets,
			MediaPath:  req.MediaPath,
			Params:     p,
			OutputDir:  o.config.OutputDir,
			RenderedAt: start,
		})
		if err != nil {
			o.logger.Error("Batch %s aborted: %v", result.ID, err)
			return result, err
		}
		result.Primary = append(result.Primary, res)
	}

	// 2. Derived outputs
	for _, base := range result.Primary {
		specs := o.config.Derived[base.Label]
		if !base.OK() || len(specs) == 0 {
			continue
		}
		out, err := o.deriveStage.Execute(ctx, pipeline.DeriveInput{
			Source:     base,
			Specs:      specs,
			Tag:        used[base.Label].Tag,
			OutputDir:  o.config.OutputDir,
			RenderedAt: start,
		})
		result.Derived = append(result.Derived, out...)
		if err != nil {
			return result, err
		}
	}

	// 3. Archive
	produced := result.Produced()
	o.track(produced...)
	if len(produced) == 0 {
		o.logger.Warn("Batch %s produced no files", result.ID)
		return result, nil
	}
	archivePath := filepath.Join(o.config.OutputDir, ArchiveName(start))
	if err := o.archiver.Archive(archivePath, produced); err != nil {
		return result, apperr.IO(err, "batch.archive", "write %s", filepath.Base(archivePath))
	}
	result.ArchivePath = archivePath
	o.track(archivePath)
	o.logger.Info("Archive written: %s (%d files)", archivePath, len(produced))

	// 4. Publish
	if o.publisher != nil {
		url, err := o.publisher.Publish(ctx, archivePath)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			o.logger.Warn("Publishing %s failed: %v", archivePath, err)
		} else {
			result.ArchiveURL = url
			o.logger.Info("Archive published: %s", url)
		}
	}

	// 5. Report
	if o.report != nil {
		result.Elapsed = o.clock().Sub(start)
		reportPath := o.report.PathFor(archivePath)
		if err := o.report.Write(reportPath, o.summarize(req, result, used)); err != nil {
			o.logger.Warn("Report %s failed: %v", reportPath, err)
		} else {
			result.ReportPath = reportPath
			o.track(reportPath)
		}
	}

	o.logger.Info("Batch %s finished: %d files, %d failed", result.ID, len(produced), result.Failed())
	return result, nil
}

func (o *Orchestrator) selectFormats(keys []string) ([]pipeline.FormatSpec, error) {
	if len(keys) == 0 {
		return o.config.Formats, nil
	}
	var selected []pipeline.FormatSpec
	for _, key := range keys {
		found := false
		for _, f := range o.config.Formats {
			if f.Key == key {
				selected = append(selected, f)
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.New(apperr.CodeValidation, "batch.formats", fmt.Sprintf("unknown format %q", key))
		}
	}
	return selected, nil
}

func (o *Orchestrator) track(paths ...string) {
	if o.retention == nil {
		return
	}
	for _, p := range paths {
		o.retention.Track(p, 0)
	}
}

func (o *Orchestrator) summarize(req BatchRequest, r BatchResult, used map[string]params.RenderParameters) *summarizer.Summary {
	var first params.RenderParameters
	for _, res := range r.Primary {
		if p, ok := used[res.Label]; ok {
			first = p
			break
		}
	}

	b := summarizer.NewBuilder().
		WithBatch(r.ID, r.StartedAt).
		WithContent(first.Tag, first.Title, filepath.Base(req.MediaPath)).
		WithSettings(summarizer.Settings{
			FrameRate: first.FrameRate,
			CRF:       o.config.CRF,
			Preset:    o.config.Preset,
		}).
		WithArchive(r.ArchivePath, r.ArchiveURL).
		WithElapsed(r.Elapsed)
	for _, res := range r.Primary {
		b.AddResult(summarizer.KindPrimary, res, 0)
	}
	for _, res := range r.Derived {
		b.AddResult(summarizer.KindDerived, res, 0)
	}
	return b.Build()
}
