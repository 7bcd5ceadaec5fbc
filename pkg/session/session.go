// Package session holds the persisted settings document: global render
// options, per-format overrides, and the current user media.
package session

import (
	"encoding/json"
	"maps"

	"github.com/sidneyts/NOTICIAS/pkg/params"
)

// Document keys besides the render options.
const (
	KeyFormats                   = "formats"
	KeyUserMediaFilename         = "userMediaFilename"
	KeyUserMediaOriginalFilename = "userMediaOriginalFilename"
	KeySelectedFormat            = "selectedFormat"
)

// Session is the decoded settings document.
//
// On disk the document is a flat JSON object: render options sit at the
// top level next to the media fields, and per-format overrides live under
// "formats". Keys the renderer does not know are kept in Extra and written
// back unchanged.
type Session struct {
	Global                    map[string]any
	Formats                   map[string]map[string]any
	UserMediaFilename         string
	UserMediaOriginalFilename string
	SelectedFormat            string
	Extra                     map[string]any
}

// New returns an empty session.
func New() *Session {
	return &Session{
		Global:  make(map[string]any),
		Formats: make(map[string]map[string]any),
		Extra:   make(map[string]any),
	}
}

// Merge applies patch key by key. Render options replace the global value,
// each entry of "formats" replaces that format's overrides, and a null
// value deletes the key.
func (s *Session) Merge(patch map[string]any) {
	for k, v := range patch {
		switch {
		case params.IsKey(k):
			if v == nil {
				delete(s.Global, k)
			} else {
				s.Global[k] = v
			}
		case k == KeyFormats:
			s.mergeFormats(v)
		case k == KeyUserMediaFilename:
			s.UserMediaFilename = asString(v)
		case k == KeyUserMediaOriginalFilename:
			s.UserMediaOriginalFilename = asString(v)
		case k == KeySelectedFormat:
			s.SelectedFormat = asString(v)
		default:
			if v == nil {
				delete(s.Extra, k)
			} else {
				s.Extra[k] = v
			}
		}
	}
}

func (s *Session) mergeFormats(v any) {
	formats, ok := v.(map[string]any)
	if !ok {
		return
	}
	for key, raw := range formats {
		overrides, ok := raw.(map[string]any)
		if !ok || overrides == nil {
			delete(s.Formats, key)
			continue
		}
		s.Formats[key] = maps.Clone(overrides)
	}
}

// Parameters merges defaults < global settings < the format's overrides <
// request overrides and validates the result.
func (s *Session) Parameters(formatKey string, overrides map[string]any) (params.RenderParameters, error) {
	return params.Merge(s.Global, s.Formats[formatKey], overrides)
}

// Document returns the document as served to clients: every render option
// with its effective global value, plus the remaining fields.
func (s *Session) Document() map[string]any {
	doc := s.raw()
	for k, v := range params.Defaults().Map() {
		if _, stored := s.Global[k]; !stored {
			doc[k] = v
		}
	}
	return doc
}

func (s *Session) raw() map[string]any {
	doc := make(map[string]any, len(s.Global)+len(s.Extra)+4)
	maps.Copy(doc, s.Extra)
	maps.Copy(doc, s.Global)
	if len(s.Formats) > 0 {
		formats := make(map[string]any, len(s.Formats))
		for k, v := range s.Formats {
			formats[k] = v
		}
		doc[KeyFormats] = formats
	}
	if s.UserMediaFilename != "" {
		doc[KeyUserMediaFilename] = s.UserMediaFilename
	}
	if s.UserMediaOriginalFilename != "" {
		doc[KeyUserMediaOriginalFilename] = s.UserMediaOriginalFilename
	}
	if s.SelectedFormat != "" {
		doc[KeySelectedFormat] = s.SelectedFormat
	}
	return doc
}

// MarshalJSON implements json.Marshaler.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.raw())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Session) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = *New()
	s.Merge(doc)
	return nil
}

func asString(v any) string {
	str, _ := v.(string)
	return str
}
