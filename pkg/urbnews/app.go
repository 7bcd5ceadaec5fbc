// Package urbnews wires the adapters, stages and stores into one
// application used by the CLI and the HTTP server.
package urbnews

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegbin"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/ffmpegsource"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/filesink"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/ggrenderer"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/h264encoder"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/jsonstore"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/mediaprobe"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/nullsink"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/osfilesystem"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/otfont"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/redisstore"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/s3publisher"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/smartdecoder"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/ziparchive"
	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/config"
	"github.com/sidneyts/NOTICIAS/pkg/orchestrator"
	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/preview"
	"github.com/sidneyts/NOTICIAS/pkg/retention"
	"github.com/sidneyts/NOTICIAS/pkg/session"
	"github.com/sidneyts/NOTICIAS/pkg/stages/composite"
	"github.com/sidneyts/NOTICIAS/pkg/stages/derive"
	"github.com/sidneyts/NOTICIAS/pkg/stages/render"
	"github.com/sidneyts/NOTICIAS/pkg/summarizer"
)

// File names inside the working directories.
const (
	PreviewFile   = "preview.jpg"
	UserMediaBase = "user_media"
)

// imageExtensions are the still formats accepted as user media.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// IsSupportedMedia reports whether name has an accepted image or video
// extension.
func IsSupportedMedia(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))] || smartdecoder.IsVideo(name)
}

// Adapters replaces the default adapters. Nil fields keep the defaults.
type Adapters struct {
	FS        ports.FileSystem
	Media     ports.MediaOpener
	Prober    ports.MediaProber
	Encoders  ports.VideoEncoderFactory
	Fonts     render.FontOpener
	Settings  ports.SettingsStore
	Archiver  ports.Archiver
	Publisher ports.Publisher
}

// App is the assembled renderer.
type App struct {
	cfg    config.Config
	fs     ports.FileSystem
	logger ports.Logger

	sessions     *session.Store
	retention    *retention.Registry
	previewer    *preview.Previewer
	orchestrator *orchestrator.Orchestrator

	closers []func() error
}

// New builds an App from cfg.
func New(ctx context.Context, cfg config.Config, logger ports.Logger, over Adapters) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Encoder.FFmpegPath != "" {
		ffmpegbin.SetPath(cfg.Encoder.FFmpegPath)
	}

	app := &App{cfg: cfg, logger: logger}
	raster := ggrenderer.New()

	app.fs = over.FS
	if app.fs == nil {
		app.fs = osfilesystem.New()
	}
	prober := over.Prober
	if prober == nil {
		prober = mediaprobe.New()
	}
	media := over.Media
	if media == nil {
		media = smartdecoder.New(app.fs, raster, ffmpegsource.NewOpener(prober))
	}
	encoders := over.Encoders
	if encoders == nil {
		encoders = h264encoder.Factory()
	}
	fonts := over.Fonts
	if fonts == nil {
		fonts = func(path string) (ports.FontLoader, error) { return otfont.Load(app.fs, path) }
	}
	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		sink = filesink.New(cfg.Dirs.Debug, app.fs, raster)
	}

	settings, err := app.settingsStore(ctx, over.Settings)
	if err != nil {
		return nil, err
	}
	app.sessions = session.NewStore(settings, logger.WithComponent("session"))

	app.retention = retention.New(app.fs, logger.WithComponent("retention"),
		retention.WithTTL(cfg.Retention.TTL),
		retention.WithInterval(cfg.Retention.Interval))

	encOpts := ports.EncoderOptions{
		Quality: cfg.Encoder.CRF,
		Preset:  cfg.Encoder.Preset,
		Bitrate: cfg.Encoder.Bitrate,
	}
	driver := render.New(render.Deps{
		FS:         app.fs,
		Raster:     raster,
		Media:      media,
		Fonts:      fonts,
		Encoders:   encoders,
		Compositor: composite.New(raster, style(cfg.Style)),
		Sink:       sink,
		Logger:     logger,
	}, encOpts)
	post := derive.New(derive.Deps{
		FS:       app.fs,
		Raster:   raster,
		Media:    media,
		Prober:   prober,
		Encoders: encoders,
		Logger:   logger,
	}, encOpts)
	app.previewer = preview.New(driver, app.fs, raster, logger)

	archiver := over.Archiver
	if archiver == nil {
		archiver = ziparchive.New(0)
	}
	opts := []orchestrator.Option{orchestrator.WithRetention(app.retention)}
	publisher, err := app.publisher(ctx, over.Publisher)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		opts = append(opts, orchestrator.WithPublisher(publisher))
	}
	if cfg.Report {
		opts = append(opts, orchestrator.WithReport(summarizer.NewWriter(summarizer.NewMarkdownFormatter(), app.fs)))
	}
	app.orchestrator = orchestrator.New(orchestrator.Config{
		Formats:   cfg.FormatSpecs(),
		Assets:    cfg.SharedAssets(),
		Derived:   cfg.DerivedSpecs(),
		OutputDir: cfg.Dirs.Output,
		CRF:       cfg.Encoder.CRF,
		Preset:    cfg.Encoder.Preset,
	}, driver, post, archiver, app.fs, logger, opts...)

	return app, nil
}

func (a *App) settingsStore(ctx context.Context, store ports.SettingsStore) (ports.SettingsStore, error) {
	if store != nil {
		return store, nil
	}
	if a.cfg.Settings.Backend != config.BackendRedis {
		return jsonstore.New(a.fs, a.cfg.Settings.File), nil
	}
	r := a.cfg.Settings.Redis
	rs, err := redisstore.Dial(ctx, redisstore.Config{Addr: r.Addr, Password: r.Password, DB: r.DB, Key: r.Key})
	if err != nil {
		return nil, fmt.Errorf("settings store: %w", err)
	}
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

func (a *App) publisher(ctx context.Context, p ports.Publisher) (ports.Publisher, error) {
	if p != nil || a.cfg.S3.Bucket == "" {
		return p, nil
	}
	s := a.cfg.S3
	pub, err := s3publisher.New(ctx, s3publisher.Config{
		Bucket:       s.Bucket,
		Prefix:       s.Prefix,
		Region:       s.Region,
		Profile:      s.Profile,
		Endpoint:     s.Endpoint,
		UsePathStyle: s.UsePathStyle,
		PresignTTL:   s.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 publisher: %w", err)
	}
	return pub, nil
}

func style(s config.StyleConfig) composite.Style {
	return composite.Style{
		TagColor:    config.ParseColor(s.TagColor),
		TagBoxColor: config.ParseColor(s.TagBoxColor),
		TitleColor:  config.ParseColor(s.TitleColor),
	}
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Retention returns the retention registry.
func (a *App) Retention() *retention.Registry {
	return a.retention
}

// Start creates the working directories, adopts output files left by a
// previous run and starts the retention janitor.
func (a *App) Start() error {
	for _, dir := range []string{a.cfg.Dirs.Uploads, a.cfg.Dirs.Output} {
		if err := a.fs.MkdirAll(dir); err != nil {
			return apperr.IO(err, "app.start", "create %s", dir)
		}
	}
	if _, err := a.retention.Adopt(filepath.Join(a.cfg.Dirs.Output, "*"), 0); err != nil {
		return err
	}
	return a.retention.Start()
}

// Close stops the janitor and releases connections.
func (a *App) Close() error {
	a.retention.Stop()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// UploadMedia stores r as the current user media, replacing the previous
// file, and records both names in the settings document.
func (a *App) UploadMedia(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !IsSupportedMedia(originalName) {
		return "", apperr.New(apperr.CodeValidation, "upload", fmt.Sprintf("unsupported media type %q", ext))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperr.MediaRead(err, "upload", "read %s", originalName)
	}

	old, err := a.fs.Glob(filepath.Join(a.cfg.Dirs.Uploads, UserMediaBase+".*"))
	if err != nil {
		return "", apperr.IO(err, "upload", "list previous media")
	}
	for _, p := range old {
		if err := a.fs.Remove(p); err != nil {
			a.logger.Warn("Could not remove %s: %v", p, err)
		}
	}

	stored := UserMediaBase + ext
	if err := a.fs.WriteFile(filepath.Join(a.cfg.Dirs.Uploads, stored), data); err != nil {
		return "", apperr.IO(err, "upload", "write %s", stored)
	}
	if _, err := a.sessions.SetUserMedia(ctx, stored, filepath.Base(originalName)); err != nil {
		return "", err
	}
	a.logger.Info("Media uploaded: %s (%d bytes)", originalName, len(data))
	return stored, nil
}

// mediaPath resolves the uploaded media of sess.
func (a *App) mediaPath(sess *session.Session) (string, error) {
	if sess.UserMediaFilename == "" {
		return "", apperr.New(apperr.CodeMediaRead, "media", "no media has been uploaded yet")
	}
	path := filepath.Join(a.cfg.Dirs.Uploads, filepath.Base(sess.UserMediaFilename))
	ok, err := a.fs.Exists(path)
	if err != nil {
		return "", apperr.MediaRead(err, "media", "stat %s", path)
	}
	if !ok {
		return "", apperr.New(apperr.CodeMediaRead, "media", "uploaded media "+sess.UserMediaFilename+" is missing")
	}
	return path, nil
}

// Generate renders a batch from the saved settings and overrides.
// formats restricts the batch to these format keys; empty renders all.
func (a *App) Generate(ctx context.Context, overrides map[string]any, formats []string) (orchestrator.BatchResult, error) {
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return orchestrator.BatchResult{}, err
	}
	media, err := a.mediaPath(sess)
	if err != nil {
		return orchestrator.BatchResult{}, err
	}
	return a.orchestrator.Run(ctx, orchestrator.BatchRequest{
		Session:   sess,
		MediaPath: media,
		Overrides: overrides,
		Formats:   formats,
	})
}

// Preview renders the preview frame of one format. An empty key uses the
// selected format of the settings document, then the first format.
func (a *App) Preview(ctx context.Context, formatKey string, overrides map[string]any) (preview.Result, error) {
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return preview.Result{}, err
	}
	media, err := a.mediaPath(sess)
	if err != nil {
		return preview.Result{}, err
	}

	if formatKey == "" {
		formatKey = sess.SelectedFormat
	}
	format, ok := a.cfg.FormatByKey(formatKey)
	if !ok {
		if formatKey != "" {
			return preview.Result{}, apperr.New(apperr.CodeValidation, "preview", fmt.Sprintf("unknown format %q", formatKey))
		}
		format = a.cfg.FormatSpecs()[0]
	}

	p, err := sess.Parameters(format.Key, overrides)
	if err != nil {
		return preview.Result{}, err
	}
	return a.previewer.Render(ctx, preview.Request{
		Input: pipeline.RenderInput{
			Format:    format,
			Assets:    a.cfg.SharedAssets(),
			MediaPath: media,
			Params:    p,
			OutputDir: a.cfg.Dirs.Output,
		},
		Path: a.PreviewPath(),
	})
}

// PreviewPath returns where the preview JPEG is written.
func (a *App) PreviewPath() string {
	return filepath.Join(a.cfg.Dirs.Output, PreviewFile)
}

// LoadSettings returns the settings document, writing the defaults when
// nothing was saved yet.
func (a *App) LoadSettings(ctx context.Context) (map[string]any, error) {
	sess, err := a.sessions.EnsureDefaults(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Document(), nil
}

// SaveSettings merges patch into the settings document.
func (a *App) SaveSettings(ctx context.Context, patch map[string]any) (map[string]any, error) {
	sess, err := a.sessions.Merge(ctx, patch)
	if err != nil {
		return nil, err
	}
	return sess.Document(), nil
}

// OutputFile resolves a file name inside the output directory.
func (a *App) OutputFile(name string) (string, error) {
	return a.resolve(a.cfg.Dirs.Output, "output", name)
}

// AssetFile resolves a file name inside the assets directory.
func (a *App) AssetFile(name string) (string, error) {
	return a.resolve(a.cfg.Dirs.Assets, "assets", name)
}

func (a *App) resolve(dir, op, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", apperr.New(apperr.CodeNotFound, op, "invalid file name")
	}
	path := filepath.Join(dir, name)
	ok, err := a.fs.Exists(path)
	if err != nil {
		return "", apperr.IO(err, op, "stat %s", name)
	}
	if !ok {
		return "", apperr.New(apperr.CodeNotFound, op, name+" not found")
	}
	return path, nil
}
