// Package httpapi serves the renderer to the browser front end.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sidneyts/NOTICIAS/pkg/orchestrator"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
	"github.com/sidneyts/NOTICIAS/pkg/preview"
)

// MaxUploadBytes bounds the size of an uploaded media file.
const MaxUploadBytes = 512 << 20

// Service is the application behind the routes. *urbnews.App implements it.
type Service interface {
	UploadMedia(ctx context.Context, originalName string, r io.Reader) (string, error)
	Preview(ctx context.Context, formatKey string, overrides map[string]any) (preview.Result, error)
	Generate(ctx context.Context, overrides map[string]any, formats []string) (orchestrator.BatchResult, error)
	LoadSettings(ctx context.Context) (map[string]any, error)
	SaveSettings(ctx context.Context, patch map[string]any) (map[string]any, error)
	OutputFile(name string) (string, error)
	AssetFile(name string) (string, error)
	PreviewPath() string
}

// Options configures the router.
type Options struct {
	// RateLimit is the number of requests per minute allowed per client
	// on the render routes. Zero disables the limit.
	RateLimit int
	// Metrics mounts the Prometheus handler on /metrics.
	Metrics bool
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc    Service
	logger ports.Logger
	router chi.Router
}

// New creates a server and its routes.
func New(svc Service, logger ports.Logger, opts Options) *Server {
	s := &Server{svc: svc, logger: logger.WithComponent("http")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(rateLimit(opts.RateLimit, time.Minute))
		}
		r.Post("/upload-media", s.handleUpload)
		r.Post("/preview-frame", s.handlePreview)
		r.Post("/generate-video", s.handleGenerate)
	})
	r.Get("/load-settings", s.handleLoadSettings)
	r.Post("/save-settings", s.handleSaveSettings)
	r.Get("/output/{file}", s.handleOutput)
	r.Get("/assets/{file}", s.handleAsset)
	r.Get("/preview.jpg", s.handlePreviewImage)
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "muitas requisições, tente novamente mais tarde"})
		}),
	)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}
