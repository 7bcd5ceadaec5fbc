package urbnews

import "github.com/sidneyts/NOTICIAS/pkg/config"

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// QualitySettings contains the x264 parameters of a preset.
type QualitySettings struct {
	CRF    int    // x264 CRF value (0-51, lower is better)
	Preset string // x264 speed preset
}

// GetQualitySettings returns quality settings for the given preset.
func GetQualitySettings(preset QualityPreset) QualitySettings {
	switch preset {
	case QualityLow:
		return QualitySettings{
			CRF:    28,
			Preset: "veryfast",
		}
	case QualityHigh:
		return QualitySettings{
			CRF:    18,
			Preset: "slow",
		}
	default: // medium
		return QualitySettings{
			CRF:    23,
			Preset: "fast",
		}
	}
}

// ApplyQuality overwrites the encoder settings of cfg with a preset.
// An empty preset leaves cfg unchanged.
func ApplyQuality(cfg *config.Config, preset QualityPreset) {
	if preset == "" {
		return
	}
	q := GetQualitySettings(preset)
	cfg.Encoder.CRF = q.CRF
	cfg.Encoder.Preset = q.Preset
}
