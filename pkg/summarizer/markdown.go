package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Extension implements Formatter.
func (f *MarkdownFormatter) Extension() string { return ".md" }

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Urbnews Batch Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.GeneratedAt.Format("02/01/2006 15:04:05"))
	if s.BatchID != "" {
		fmt.Fprintf(&b, "Batch: `%s`\n", s.BatchID)
	}
	b.WriteString("\n")

	b.WriteString("## Content\n\n")
	fmt.Fprintf(&b, "- **Tag**: %s\n", orDash(s.Content.Tag))
	fmt.Fprintf(&b, "- **Title**: %s\n", orDash(s.Content.Title))
	fmt.Fprintf(&b, "- **Media**: %s\n\n", orDash(s.Content.MediaFile))

	b.WriteString("## Settings\n\n")
	fmt.Fprintf(&b, "- **Frame rate**: %.2f fps\n", s.Settings.FrameRate)
	fmt.Fprintf(&b, "- **CRF**: %d\n", s.Settings.CRF)
	fmt.Fprintf(&b, "- **Preset**: %s\n\n", orDash(s.Settings.Preset))

	ok, failed := s.Counts()
	fmt.Fprintf(&b, "## Outputs (%d ok, %d failed)\n\n", ok, failed)
	if len(s.Outputs) > 0 {
		b.WriteString("| Kind | Label | Base | File | Frames | Size | Time | Status |\n")
		b.WriteString("|---|---|---|---|---:|---:|---:|---|\n")
		for _, o := range s.Outputs {
			status := "ok"
			if !o.OK() {
				status = "error: " + escapeCell(o.Error)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s | %s | %s |\n",
				o.Kind, o.Label, o.BaseFormat, orDash(filepath.Base(o.Path)),
				o.Frames, formatBytes(o.FileSize), formatDuration(o.Elapsed), status)
		}
		b.WriteString("\n")
	}

	if s.Archive.Path != "" {
		b.WriteString("## Archive\n\n")
		fmt.Fprintf(&b, "- **File**: %s\n", filepath.Base(s.Archive.Path))
		if s.Archive.URL != "" {
			fmt.Fprintf(&b, "- **URL**: %s\n", s.Archive.URL)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total time: %s\n", formatDuration(s.Elapsed))
	return b.String()
}

func orDash(s string) string {
	if s == "" || s == "." {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n <= 0:
		return "-"
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f s", d.Seconds())
}
