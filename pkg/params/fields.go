package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type field struct {
	key string
	set func(v any) error
	get func() any
}

func (p *RenderParameters) fields() []field {
	return []field{
		stringField(KeyTag, &p.Tag),
		stringField(KeyTitle, &p.Title),
		intField(KeyTagFontSize, &p.TagFontSize),
		intField(KeyTitleFontSize, &p.TitleFontSize),
		intField(KeyTagX, &p.TagX),
		intField(KeyTagY, &p.TagY),
		intField(KeyTitleX, &p.TitleX),
		intField(KeyTitleY, &p.TitleY),
		intField(KeyTitleTracking, &p.TitleTracking),
		intField(KeyTitleLineSpacing, &p.TitleLineSpacing),
		intField(KeyBackgroundBlur, &p.BackgroundBlur),
		floatField(KeyForegroundScale, &p.ForegroundScale),
		intField(KeyForegroundX, &p.ForegroundX),
		intField(KeyForegroundY, &p.ForegroundY),
		floatField(KeyLogoScale, &p.LogoScale),
		intField(KeyLogoX, &p.LogoX),
		intField(KeyLogoY, &p.LogoY),
		floatField(KeyMaskIntensity, &p.MaskIntensity),
		floatField(KeyMaskRotation, &p.MaskRotation),
		intField(KeyMaskOffsetX, &p.MaskOffsetX),
		floatField(KeyFrameRate, &p.FrameRate),
		intField(KeyTagPadX, &p.TagPadX),
		intField(KeyTagPadY, &p.TagPadY),
	}
}

func stringField(key string, dst *string) field {
	return field{
		key: key,
		set: func(v any) error {
			switch s := v.(type) {
			case string:
				*dst = s
			case json.Number:
				*dst = s.String()
			case float64, int:
				*dst = fmt.Sprint(s)
			default:
				return fmt.Errorf("expected text, got %T", v)
			}
			return nil
		},
		get: func() any { return *dst },
	}
}

func intField(key string, dst *int) field {
	return field{
		key: key,
		set: func(v any) error {
			f, err := toFloat(v)
			if err != nil {
				return err
			}
			if f != math.Trunc(f) {
				return fmt.Errorf("must be a whole number")
			}
			if f > math.MaxInt32 || f < math.MinInt32 {
				return fmt.Errorf("out of range")
			}
			*dst = int(f)
			return nil
		},
		get: func() any { return *dst },
	}
}

func floatField(key string, dst *float64) field {
	return field{
		key: key,
		set: func(v any) error {
			f, err := toFloat(v)
			if err != nil {
				return err
			}
			*dst = f
			return nil
		},
		get: func() any { return *dst },
	}
}

// toFloat converts JSON numbers, Go numbers and numeric strings.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return checkFinite(n)
	case float32:
		return checkFinite(float64(n))
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return checkFinite(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("empty value")
		}
		// Accept a decimal comma, as typed by pt-BR users.
		f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		return checkFinite(f)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func checkFinite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}
