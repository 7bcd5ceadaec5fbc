// Package retention deletes produced files once they expire.
//
// Every output file is tracked with a time to live. A janitor job scheduled
// with robfig/cron sweeps expired entries; Sweep can also be called
// directly with an explicit time.
package retention

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sidneyts/NOTICIAS/pkg/metrics"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Defaults.
const (
	DefaultTTL      = 600 * time.Second
	DefaultInterval = 30 * time.Second
)

// Registry tracks files and their expiry.
type Registry struct {
	fs       ports.FileSystem
	logger   ports.Logger
	clock    func() time.Time
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	expires map[string]time.Time
	cron    *cron.Cron
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source used by Track and the janitor.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithTTL sets the default time to live.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithInterval sets how often the janitor sweeps.
func WithInterval(interval time.Duration) Option {
	return func(r *Registry) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// New creates a registry. The janitor is not started.
func New(fs ports.FileSystem, logger ports.Logger, opts ...Option) *Registry {
	r := &Registry{
		fs:       fs,
		logger:   logger.WithComponent("retention"),
		clock:    time.Now,
		ttl:      DefaultTTL,
		interval: DefaultInterval,
		expires:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the default time to live.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Track schedules path for deletion ttl from now. A ttl of zero uses the
// default. Tracking a path again moves its expiry.
func (r *Registry) Track(path string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	r.mu.Lock()
	r.expires[path] = r.clock().Add(ttl)
	n := len(r.expires)
	r.mu.Unlock()
	metrics.RetainedFiles.Set(float64(n))
}

// Adopt tracks the existing files matching pattern, expiring each ttl after
// its modification time. It is used at start-up for files left by a
// previous process.
func (r *Registry) Adopt(pattern string, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	paths, err := r.fs.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", pattern, err)
	}
	r.mu.Lock()
	for _, p := range paths {
		mod, err := r.fs.ModTime(p)
		if err != nil {
			continue
		}
		r.expires[p] = mod.Add(ttl)
	}
	n := len(r.expires)
	r.mu.Unlock()
	metrics.RetainedFiles.Set(float64(n))
	return len(paths), nil
}

// Len returns the number of tracked files.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.expires)
}

// Sweep deletes every file that expired at or before now and returns the
// deleted paths in order. Files that are already gone are forgotten
// silently. Other removal errors are logged and retried on the next sweep.
func (r *Registry) Sweep(now time.Time) []string {
	r.mu.Lock()
	var due []string
	for p, exp := range r.expires {
		if !exp.After(now) {
			due = append(due, p)
		}
	}
	r.mu.Unlock()
	sort.Strings(due)

	var deleted []string
	for _, p := range due {
		err := r.fs.Remove(p)
		switch {
		case err == nil:
			deleted = append(deleted, p)
		case errors.Is(err, os.ErrNotExist):
		default:
			r.logger.Warn("Could not remove %s: %v", p, err)
			continue
		}
		r.mu.Lock()
		// A concurrent Track may have extended the entry.
		if exp, ok := r.expires[p]; ok && !exp.After(now) {
			delete(r.expires, p)
		}
		r.mu.Unlock()
	}

	if len(deleted) > 0 {
		metrics.SweptFiles.Add(float64(len(deleted)))
		r.logger.Debug("Removed %d expired files", len(deleted))
	}
	metrics.RetainedFiles.Set(float64(r.Len()))
	return deleted
}

// Start schedules the janitor. Calling Start on a running registry is a
// no-op.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+r.interval.String(), func() {
		r.Sweep(r.clock())
	}); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}
	c.Start()
	r.cron = c
	r.logger.Debug("Janitor started, sweeping every %s", r.interval)
	return nil
}

// Stop halts the janitor and waits for a running sweep to finish.
func (r *Registry) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
