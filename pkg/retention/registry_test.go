package retention

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/logger"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(t *testing.T, opts ...Option) (*Registry, *mocks.FileSystem, *fakeClock) {
	t.Helper()
	fs := mocks.NewFileSystem()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(fs, logger.NewNoop(), opts...), fs, clock
}

func TestRegistry_SweepExpired(t *testing.T) {
	r, fs, clock := newRegistry(t)
	fs.SetFile("output/a.mp4", []byte("a"))
	fs.SetFile("output/b.mp4", []byte("b"))

	r.Track("output/a.mp4", 0)
	clock.Advance(5 * time.Minute)
	r.Track("output/b.mp4", 0)
	require.Equal(t, 2, r.Len())

	assert.Empty(t, r.Sweep(clock.Now()), "nothing is due yet")

	clock.Advance(5 * time.Minute)
	deleted := r.Sweep(clock.Now())
	assert.Equal(t, []string{"output/a.mp4"}, deleted)
	assert.Equal(t, 1, r.Len())
	_, ok := fs.GetFile("output/a.mp4")
	assert.False(t, ok)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, []string{"output/b.mp4"}, r.Sweep(clock.Now()))
	assert.Zero(t, r.Len())
}

func TestRegistry_DefaultTTL(t *testing.T) {
	r, _, _ := newRegistry(t)
	assert.Equal(t, 600*time.Second, r.TTL())

	r2, _, _ := newRegistry(t, WithTTL(time.Minute))
	assert.Equal(t, time.Minute, r2.TTL())
}

func TestRegistry_CustomTTL(t *testing.T) {
	r, fs, clock := newRegistry(t)
	fs.SetFile("preview.jpg", []byte("x"))

	r.Track("preview.jpg", 10*time.Second)
	clock.Advance(11 * time.Second)
	assert.Equal(t, []string{"preview.jpg"}, r.Sweep(clock.Now()))
}

func TestRegistry_RetrackExtends(t *testing.T) {
	r, fs, clock := newRegistry(t)
	fs.SetFile("uploads/user_media.mp4", []byte("x"))

	r.Track("uploads/user_media.mp4", time.Minute)
	clock.Advance(50 * time.Second)
	r.Track("uploads/user_media.mp4", time.Minute)
	clock.Advance(50 * time.Second)

	assert.Empty(t, r.Sweep(clock.Now()))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_MissingFileIsForgotten(t *testing.T) {
	r, _, clock := newRegistry(t)

	r.Track("output/gone.mp4", time.Second)
	clock.Advance(time.Minute)

	assert.Empty(t, r.Sweep(clock.Now()))
	assert.Zero(t, r.Len(), "already deleted files must not be retried")
}

func TestRegistry_RemoveErrorIsRetried(t *testing.T) {
	r, fs, clock := newRegistry(t)
	fs.SetFile("output/locked.mp4", []byte("x"))
	fs.RemoveFunc = func(path string) error { return errors.New("busy") }

	r.Track("output/locked.mp4", time.Second)
	clock.Advance(time.Minute)
	assert.Empty(t, r.Sweep(clock.Now()))
	assert.Equal(t, 1, r.Len())

	fs.RemoveFunc = func(path string) error { return os.ErrNotExist }
	r.Sweep(clock.Now())
	assert.Zero(t, r.Len())
}

func TestRegistry_Adopt(t *testing.T) {
	r, fs, clock := newRegistry(t)
	fs.SetFile("output/old.mp4", []byte("x"))
	fs.SetFile("output/new.mp4", []byte("x"))
	fs.SetFile("uploads/user_media.png", []byte("x"))
	fs.SetModTime("output/old.mp4", clock.Now().Add(-time.Hour))
	fs.SetModTime("output/new.mp4", clock.Now())

	n, err := r.Adopt("output/*.mp4", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"output/old.mp4"}, r.Sweep(clock.Now()))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_JanitorSweeps(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fs := mocks.NewFileSystem()
	fs.SetFile("output/a.mp4", []byte("a"))
	r := New(fs, logger.NewNoop(), WithInterval(time.Second))

	r.Track("output/a.mp4", time.Millisecond)
	require.NoError(t, r.Start())
	require.NoError(t, r.Start(), "second Start is a no-op")

	assert.Eventually(t, func() bool { return r.Len() == 0 }, 5*time.Second, 50*time.Millisecond)
	r.Stop()
	r.Stop()

	_, ok := fs.GetFile("output/a.mp4")
	assert.False(t, ok)
}

func TestRegistry_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r, _, _ := newRegistry(t)
	r.Stop()
}
