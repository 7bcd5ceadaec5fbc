package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

// Formatter renders a Summary as a report document.
type Formatter interface {
	Format(summary *Summary) string
	// Extension returns the file extension of the document, dot included.
	Extension() string
}

// Writer stores batch reports next to their archives.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a Writer producing documents with formatter.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
	}
}

// PathFor returns the report path for an archive: the archive path with
// the formatter's extension.
func (w *Writer) PathFor(archivePath string) string {
	return strings.TrimSuffix(archivePath, filepath.Ext(archivePath)) + w.formatter.Extension()
}

// Write formats the summary and writes it to path.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.formatter.Format(summary)
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
