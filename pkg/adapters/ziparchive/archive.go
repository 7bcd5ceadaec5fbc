// Package ziparchive bundles output files into a zip archive.
package ziparchive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Archiver writes zip archives to disk. The archive is streamed to a pending
// file and renamed into place once complete.
type Archiver struct {
	level int
}

// New creates an archiver using the given flate level
// (flate.BestSpeed..flate.BestCompression). Zero selects flate.BestSpeed,
// since H.264 payloads barely compress.
func New(level int) *Archiver {
	if level == 0 {
		level = flate.BestSpeed
	}
	return &Archiver{level: level}
}

// Archive writes dst containing each file under its base name. Files are
// added in order; a repeated base name is skipped.
func (a *Archiver) Archive(dst string, files []string) (err error) {
	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	pending, err := renameio.NewPendingFile(dst, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("create pending archive: %w", err)
	}
	defer func() {
		if cerr := pending.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(pending)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, a.level)
	})

	seen := make(map[string]bool, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := addFile(zw, path, name); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", dst, err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	hdr.Modified = info.ModTime().Truncate(time.Second)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return nil
}

var _ ports.Archiver = (*Archiver)(nil)
