// Package ffmpegbin locates the ffmpeg and ffprobe executables shared by the
// encoder, the frame reader and the prober.
package ffmpegbin

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	// ErrNotFound is returned when no ffmpeg executable can be located.
	ErrNotFound = errors.New("ffmpegbin: ffmpeg not found")

	// ErrProbeNotFound is returned when no ffprobe executable can be located.
	ErrProbeNotFound = errors.New("ffmpegbin: ffprobe not found")
)

var (
	mu         sync.RWMutex
	customPath string
)

// SetPath sets an explicit ffmpeg executable. An empty path restores the
// default search.
func SetPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	customPath = path
}

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := Find()
	return err == nil
}

// Find searches for ffmpeg.
// Priority: 1) SetPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func Find() (string, error) {
	mu.RLock()
	custom := customPath
	mu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrNotFound, envPath)
	}

	if path, ok := lookup("ffmpeg"); ok {
		return path, nil
	}
	return "", ErrNotFound
}

// FindProbe looks up ffprobe on PATH, where ffmpeg-go expects it.
func FindProbe() (string, error) {
	path, err := exec.LookPath(executable("ffprobe"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProbeNotFound, err)
	}
	return path, nil
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func lookup(name string) (string, bool) {
	exe := executable(name)
	if path, err := exec.LookPath(exe); err == nil {
		return path, true
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`}
	case "darwin":
		dirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		dirs = []string{"/usr/bin", "/usr/local/bin", "/snap/bin"}
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, exe)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
