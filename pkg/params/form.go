package params

import (
	"net/url"
	"strings"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
)

// FieldError describes one request field that failed parsing or validation.
type FieldError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// FieldErrors is the structured result of a failed parse.
type FieldErrors []FieldError

// Error implements the error interface.
func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Reason
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

// Is makes FieldErrors match apperr.ErrValidation.
func (e FieldErrors) Is(target error) bool {
	return target == apperr.ErrValidation
}

// Overrides holds typed values for the options present in a request.
type Overrides map[string]any

// ParseForm parses every recognized option present in values into its
// typed form. Empty text fields are kept as empty strings; empty numeric
// fields are skipped. Fields that fail to parse or fall out of range are
// reported together.
func ParseForm(values url.Values) (Overrides, error) {
	out := make(Overrides)
	var scratch RenderParameters
	var errs FieldErrors
	for _, f := range scratch.fields() {
		raw, ok := values[f.key]
		if !ok || len(raw) == 0 {
			continue
		}
		v := raw[0]
		if strings.TrimSpace(v) == "" {
			if _, isText := f.get().(string); !isText {
				continue
			}
		}
		if err := f.set(v); err != nil {
			errs = append(errs, FieldError{Field: f.key, Value: v, Reason: err.Error()})
			continue
		}
		out[f.key] = f.get()
	}
	if len(errs) > 0 {
		return nil, errs
	}
	// Only the options present in values can be out of range here.
	p := Defaults()
	if err := p.Apply(out); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge builds parameters from defaults and the given layers, applied in
// order so later layers win key by key, then validates the result.
func Merge(layers ...map[string]any) (RenderParameters, error) {
	p := Defaults()
	var errs FieldErrors
	for _, layer := range layers {
		if err := p.Apply(layer); err != nil {
			if fe, ok := err.(FieldErrors); ok {
				errs = append(errs, fe...)
				continue
			}
			return p, err
		}
	}
	if len(errs) > 0 {
		return p, errs
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
