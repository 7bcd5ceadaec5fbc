package render

import (
	"fmt"
	"strings"
	"time"
)

// SanitizeTag turns spaces into underscores, drops everything but ASCII
// letters, digits and underscores, and upper-cases the rest.
func SanitizeTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(tag, " ", "_") {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OutputName returns the file name of one rendered video:
// {DDMMYYYY}_{LABEL}_URBNEWS_{TAG}.mp4.
func OutputName(at time.Time, label, tag string) string {
	return fmt.Sprintf("%s_%s_URBNEWS_%s.mp4", at.Format("02012006"), label, SanitizeTag(tag))
}
