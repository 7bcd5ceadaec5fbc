// Package metrics exposes render counters and timings to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
)

var (
	// RenderDuration tracks the wall time of one output file by kind
	// (primary or derived).
	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urbnews_render_duration_seconds",
		Help:    "Time taken to produce one output video",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"kind", "label"})

	// RenderTotal counts finished outputs by result and error code.
	RenderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbnews_render_total",
		Help: "Total number of output videos by kind, result and error code",
	}, []string{"kind", "result", "code"})

	// FramesTotal counts encoded frames.
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbnews_frames_total",
		Help: "Total number of frames encoded",
	}, []string{"kind"})

	// BatchDuration tracks whole batch runs.
	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbnews_batch_duration_seconds",
		Help:    "Time taken to render a batch including derived outputs and archive",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
	})

	// PreviewDuration tracks preview frame renders.
	PreviewDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbnews_preview_duration_seconds",
		Help:    "Time taken to render a preview frame",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	})

	// RetainedFiles is the number of files awaiting deletion.
	RetainedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "urbnews_retained_files",
		Help: "Output files tracked by the retention registry",
	})

	// SweptFiles counts files deleted by the retention janitor.
	SweptFiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbnews_swept_files_total",
		Help: "Total number of expired files deleted",
	})
)

// Output kinds.
const (
	KindPrimary = "primary"
	KindDerived = "derived"
)

// ObserveRender records one finished output.
func ObserveRender(kind, label string, frames int, duration time.Duration, err error) {
	RenderDuration.WithLabelValues(kind, label).Observe(duration.Seconds())
	if err != nil {
		RenderTotal.WithLabelValues(kind, "failure", string(apperr.CodeOf(err))).Inc()
		return
	}
	RenderTotal.WithLabelValues(kind, "success", "").Inc()
	FramesTotal.WithLabelValues(kind).Add(float64(frames))
}

// ObserveBatch records a batch run.
func ObserveBatch(duration time.Duration) {
	BatchDuration.Observe(duration.Seconds())
}

// ObservePreview records a preview render.
func ObservePreview(duration time.Duration) {
	PreviewDuration.Observe(duration.Seconds())
}
