// Package params defines the typed render parameters, their defaults, and
// the boundary parsing that turns loosely typed input into them.
package params

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Option names as they appear in forms and in the settings document.
const (
	KeyTag              = "retranca"
	KeyTitle            = "titulo"
	KeyTagFontSize      = "fontSizeRetranca"
	KeyTitleFontSize    = "fontSizeTitulo"
	KeyTagX             = "posXRetranca"
	KeyTagY             = "posYRetranca"
	KeyTitleX           = "posXTitulo"
	KeyTitleY           = "posYTitulo"
	KeyTitleTracking    = "letterSpacingTitulo"
	KeyTitleLineSpacing = "lineSpacingTitulo"
	KeyBackgroundBlur   = "blurFundo"
	KeyForegroundScale  = "escalaFundo"
	KeyForegroundX      = "posXFundo"
	KeyForegroundY      = "posYFundo"
	KeyLogoScale        = "escalaLogo"
	KeyLogoX            = "posXLogo"
	KeyLogoY            = "posYLogo"
	KeyMaskIntensity    = "intensidadeMascara"
	KeyMaskRotation     = "rotacaoMascara"
	KeyMaskOffsetX      = "posXMascara"
	KeyFrameRate        = "framerate"
	KeyTagPadX          = "paddingXBox"
	KeyTagPadY          = "paddingYBox"
)

// Upper bounds of the size options. Buffers grow with these values.
const (
	MaxFontSize = 1000
	MaxScale    = 10
	MaxBlur     = 301
	MaxPadding  = 500
)

// RenderParameters is the full option set for one render.
type RenderParameters struct {
	Tag              string  `json:"retranca"`
	Title            string  `json:"titulo"`
	TagFontSize      int     `json:"fontSizeRetranca"`
	TitleFontSize    int     `json:"fontSizeTitulo"`
	TagX             int     `json:"posXRetranca"`
	TagY             int     `json:"posYRetranca"`
	TitleX           int     `json:"posXTitulo"`
	TitleY           int     `json:"posYTitulo"`
	TitleTracking    int     `json:"letterSpacingTitulo"`
	TitleLineSpacing int     `json:"lineSpacingTitulo"`
	BackgroundBlur   int     `json:"blurFundo"`
	ForegroundScale  float64 `json:"escalaFundo"`
	ForegroundX      int     `json:"posXFundo"`
	ForegroundY      int     `json:"posYFundo"`
	LogoScale        float64 `json:"escalaLogo"`
	LogoX            int     `json:"posXLogo"`
	LogoY            int     `json:"posYLogo"`
	MaskIntensity    float64 `json:"intensidadeMascara"`
	MaskRotation     float64 `json:"rotacaoMascara"`
	MaskOffsetX      int     `json:"posXMascara"`
	FrameRate        float64 `json:"framerate"`

	// TagPadX and TagPadY override the format's tag-box padding when > 0.
	TagPadX int `json:"paddingXBox"`
	TagPadY int `json:"paddingYBox"`
}

// Defaults returns the built-in parameter values.
func Defaults() RenderParameters {
	return RenderParameters{
		Tag:              "RETRANCA",
		Title:            "Título de Exemplo",
		TagFontSize:      40,
		TitleFontSize:    85,
		TagX:             1027,
		TagY:             223,
		TitleX:           1000,
		TitleY:           280,
		TitleTracking:    0,
		TitleLineSpacing: 4,
		BackgroundBlur:   51,
		ForegroundScale:  1.0,
		LogoScale:        1.0,
		LogoX:            50,
		LogoY:            50,
		FrameRate:        30,
	}
}

// Apply overrides fields from values, keyed by option name. Unknown keys
// are ignored. Values may be numbers, numeric strings or strings. Every
// field that cannot be converted is reported; valid fields are still
// applied.
func (p *RenderParameters) Apply(values map[string]any) error {
	var errs FieldErrors
	for _, f := range p.fields() {
		v, ok := values[f.key]
		if !ok || v == nil {
			continue
		}
		if err := f.set(v); err != nil {
			errs = append(errs, FieldError{Field: f.key, Value: fmt.Sprint(v), Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Map returns the parameters keyed by option name.
func (p RenderParameters) Map() map[string]any {
	out := make(map[string]any)
	for _, f := range p.fields() {
		out[f.key] = f.get()
	}
	return out
}

// JSON returns the indented JSON encoding of p.
func (p RenderParameters) JSON() []byte {
	data, _ := json.MarshalIndent(p, "", "  ")
	return data
}

// Keys returns every recognized option name in sorted order.
func Keys() []string {
	var p RenderParameters
	fields := p.fields()
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key names a render option.
func IsKey(key string) bool {
	var p RenderParameters
	for _, f := range p.fields() {
		if f.key == key {
			return true
		}
	}
	return false
}

// Validate checks value ranges. It is called once before rendering.
func (p RenderParameters) Validate() error {
	var errs FieldErrors
	check := func(ok bool, key string, value any, reason string) {
		if !ok {
			errs = append(errs, FieldError{Field: key, Value: fmt.Sprint(value), Reason: reason})
		}
	}
	check(p.TagFontSize > 0 && p.TagFontSize <= MaxFontSize, KeyTagFontSize, p.TagFontSize, fmt.Sprintf("must be in (0, %d]", MaxFontSize))
	check(p.TitleFontSize > 0 && p.TitleFontSize <= MaxFontSize, KeyTitleFontSize, p.TitleFontSize, fmt.Sprintf("must be in (0, %d]", MaxFontSize))
	check(p.BackgroundBlur >= 0 && p.BackgroundBlur <= MaxBlur, KeyBackgroundBlur, p.BackgroundBlur, fmt.Sprintf("must be in [0, %d]", MaxBlur))
	check(p.ForegroundScale > 0 && p.ForegroundScale <= MaxScale, KeyForegroundScale, p.ForegroundScale, fmt.Sprintf("must be in (0, %d]", MaxScale))
	check(p.LogoScale > 0 && p.LogoScale <= MaxScale, KeyLogoScale, p.LogoScale, fmt.Sprintf("must be in (0, %d]", MaxScale))
	check(p.MaskIntensity >= 0 && p.MaskIntensity <= 1, KeyMaskIntensity, p.MaskIntensity, "must be between 0 and 1")
	check(p.FrameRate > 0 && p.FrameRate <= 120, KeyFrameRate, p.FrameRate, "must be in (0, 120]")
	check(p.TagPadX >= 0 && p.TagPadX <= MaxPadding, KeyTagPadX, p.TagPadX, fmt.Sprintf("must be in [0, %d]", MaxPadding))
	check(p.TagPadY >= 0 && p.TagPadY <= MaxPadding, KeyTagPadY, p.TagPadY, fmt.Sprintf("must be in [0, %d]", MaxPadding))
	if len(errs) > 0 {
		return errs
	}
	return nil
}
