// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sidneyts/NOTICIAS/pkg/pipeline"
)

// Settings backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config represents the full configuration for the renderer.
type Config struct {
	Dirs    DirsConfig     `yaml:"dirs"`
	Assets  AssetsConfig   `yaml:"assets"`
	Formats []FormatConfig `yaml:"formats"`

	// Derived maps a primary format label to the outputs resampled from it.
	Derived map[string][]DerivedConfig `yaml:"derived"`

	Style     StyleConfig     `yaml:"style"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Retention RetentionConfig `yaml:"retention"`
	Settings  SettingsConfig  `yaml:"settings"`
	S3        S3Config        `yaml:"s3"`
	HTTP      HTTPConfig      `yaml:"http"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`  // Dump parameters, masks and sampled frames
	Report   bool   `yaml:"report"` // Write a Markdown report next to each archive
}

// DirsConfig lists the working directories.
type DirsConfig struct {
	Assets  string `yaml:"assets"`
	Uploads string `yaml:"uploads"`
	Output  string `yaml:"output"`
	Debug   string `yaml:"debug"`
}

// AssetsConfig names the assets shared by every format, relative to
// Dirs.Assets.
type AssetsConfig struct {
	Logo string `yaml:"logo"`
	Font string `yaml:"font"`
}

// FormatConfig describes one primary output.
type FormatConfig struct {
	Key      string              `yaml:"key"`
	Label    string              `yaml:"label"`
	Width    int                 `yaml:"width"`
	Height   int                 `yaml:"height"`
	Duration float64             `yaml:"duration"` // Seconds, 10 when zero
	Bumper   string              `yaml:"bumper"`
	Vignette string              `yaml:"vignette"`
	Padding  pipeline.TagPadding `yaml:"padding"`
}

// DerivedConfig describes one resampled output.
type DerivedConfig struct {
	Label    string  `yaml:"label"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Duration float64 `yaml:"duration"`
}

// StyleConfig holds the brand colours as hex strings.
type StyleConfig struct {
	TagColor    string `yaml:"tag_color"`
	TagBoxColor string `yaml:"tag_box_color"`
	TitleColor  string `yaml:"title_color"`
}

// EncoderConfig configures x264.
type EncoderConfig struct {
	CRF        int    `yaml:"crf"`
	Preset     string `yaml:"preset"`
	Bitrate    int    `yaml:"bitrate"` // kbps, 0 for CRF only
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// RetentionConfig controls deletion of produced files.
type RetentionConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	Interval time.Duration `yaml:"interval"`
}

// SettingsConfig selects where the settings document lives.
type SettingsConfig struct {
	Backend string      `yaml:"backend"`
	File    string      `yaml:"file"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig represents the Redis connection of the settings store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// S3Config enables publishing archives when Bucket is set.
type S3Config struct {
	Bucket       string        `yaml:"bucket"`
	Prefix       string        `yaml:"prefix"`
	Region       string        `yaml:"region"`
	Profile      string        `yaml:"profile"`
	Endpoint     string        `yaml:"endpoint"`
	UsePathStyle bool          `yaml:"use_path_style"`
	PresignTTL   time.Duration `yaml:"presign_ttl"`
}

// HTTPConfig configures the web server.
type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	RateLimit int    `yaml:"rate_limit"` // Requests per minute per client, 0 disables
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Dirs: DirsConfig{
			Assets:  "assets",
			Uploads: "uploads",
			Output:  "output",
			Debug:   "debug",
		},
		Assets: AssetsConfig{
			Logo: "logo.png",
			Font: "Figtree-Bold.ttf",
		},
		Formats: []FormatConfig{
			{Key: "1920x1080", Label: "WIDEFULLHD", Width: 1920, Height: 1080, Bumper: "base_wfhd.webm", Vignette: "fade_wfhd.png", Padding: defaultPadding},
			{Key: "1080x1920", Label: "VERTICAL", Width: 1080, Height: 1920, Bumper: "base_vertical.webm", Vignette: "fade_vertical.png", Padding: defaultPadding},
			{Key: "2048x720", Label: "CINEMA", Width: 2048, Height: 720, Bumper: "base_cinema.webm", Vignette: "fade_cinema.png", Padding: defaultPadding},
			{Key: "800x600", Label: "BOX", Width: 800, Height: 600, Bumper: "base_box.webm", Vignette: "fade_box.png", Padding: boxPadding},
			{Key: "960x1344", Label: "ABRIGO", Width: 960, Height: 1344, Bumper: "base_abrigo.webm", Vignette: "fade_abrigo.png", Padding: defaultPadding},
		},
		Derived: map[string][]DerivedConfig{
			"VERTICAL": {{Label: "MUB-FOR-SP", Width: 608, Height: 1080, Duration: 10}},
			"ABRIGO":   {{Label: "ABRIGO-SP", Width: 480, Height: 672, Duration: 10}},
		},
		Style: StyleConfig{
			TagColor:    "#3155A1",
			TagBoxColor: "#FFFFFF",
			TitleColor:  "#FFFFFF",
		},
		Encoder: EncoderConfig{
			CRF:    23,
			Preset: "fast",
		},
		Retention: RetentionConfig{
			TTL:      600 * time.Second,
			Interval: 30 * time.Second,
		},
		Settings: SettingsConfig{
			Backend: BackendFile,
			File:    "settings.json",
			Redis:   RedisConfig{Addr: "localhost:6379", Key: "urbnews:settings"},
		},
		S3: S3Config{
			Prefix: "urbnews/",
		},
		HTTP: HTTPConfig{
			Addr:      ":5000",
			RateLimit: 60,
		},
		LogLevel: "info",
	}
}

var (
	defaultPadding = pipeline.TagPadding{X: 25, Y: 12, ExtraBottom: 15}
	boxPadding     = pipeline.TagPadding{X: 12, Y: 5, ExtraBottom: 9}
)

// LoadFromFile loads configuration from a YAML file. Keys absent from the
// file keep their defaults. A formats list in the file replaces the default
// table together with the default derived mapping.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	var table struct {
		Formats []FormatConfig             `yaml:"formats"`
		Derived map[string][]DerivedConfig `yaml:"derived"`
	}
	if err := yaml.Unmarshal(data, &table); err == nil && table.Formats != nil {
		cfg.Derived = table.Derived
	}

	return cfg, nil
}

// Load reads path when it is not empty, then applies the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads environment files, .env by default. Missing files are
// ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"FFMPEG_PATH":            &c.Encoder.FFmpegPath,
		"URBNEWS_LOG_LEVEL":      &c.LogLevel,
		"URBNEWS_HTTP_ADDR":      &c.HTTP.Addr,
		"URBNEWS_OUTPUT_DIR":     &c.Dirs.Output,
		"URBNEWS_ASSETS_DIR":     &c.Dirs.Assets,
		"URBNEWS_SETTINGS":       &c.Settings.Backend,
		"URBNEWS_REDIS_ADDR":     &c.Settings.Redis.Addr,
		"URBNEWS_REDIS_PASSWORD": &c.Settings.Redis.Password,
		"URBNEWS_S3_BUCKET":      &c.S3.Bucket,
		"URBNEWS_S3_PREFIX":      &c.S3.Prefix,
		"URBNEWS_S3_REGION":      &c.S3.Region,
		"URBNEWS_S3_ENDPOINT":    &c.S3.Endpoint,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	// Setting a Redis address alone selects the Redis backend.
	if _, ok := lookup("URBNEWS_SETTINGS"); !ok {
		if v, ok := lookup("URBNEWS_REDIS_ADDR"); ok && v != "" {
			c.Settings.Backend = BackendRedis
		}
	}
	if v, ok := lookup("URBNEWS_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("URBNEWS_REDIS_DB: %w", err)
		}
		c.Settings.Redis.DB = db
	}
	if v, ok := lookup("URBNEWS_RETENTION_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("URBNEWS_RETENTION_TTL: %w", err)
		}
		c.Retention.TTL = ttl
	}
	return nil
}

// Validate checks the format table and the derived mapping.
func (c Config) Validate() error {
	if len(c.Formats) == 0 {
		return errors.New("no formats configured")
	}
	keys := make(map[string]bool)
	labels := make(map[string]bool)
	for i, f := range c.Formats {
		if f.Key == "" || f.Label == "" {
			return fmt.Errorf("format %d: key and label are required", i)
		}
		if f.Width <= 0 || f.Height <= 0 {
			return fmt.Errorf("format %s: invalid size %dx%d", f.Key, f.Width, f.Height)
		}
		if keys[f.Key] || labels[f.Label] {
			return fmt.Errorf("format %s: duplicate key or label", f.Key)
		}
		keys[f.Key], labels[f.Label] = true, true
	}
	for base, specs := range c.Derived {
		if !labels[base] {
			return fmt.Errorf("derived outputs reference unknown format %s", base)
		}
		for _, d := range specs {
			if d.Label == "" || d.Width <= 0 || d.Height <= 0 {
				return fmt.Errorf("derived output %q of %s is incomplete", d.Label, base)
			}
		}
	}
	switch c.Settings.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown settings backend %q", c.Settings.Backend)
	}
	return nil
}

// FormatSpecs returns the format table with asset paths resolved against
// the assets directory.
func (c Config) FormatSpecs() []pipeline.FormatSpec {
	specs := make([]pipeline.FormatSpec, len(c.Formats))
	for i, f := range c.Formats {
		specs[i] = pipeline.FormatSpec{
			Key:             f.Key,
			Label:           f.Label,
			Width:           f.Width,
			Height:          f.Height,
			DurationSeconds: f.Duration,
			BumperPath:      c.asset(f.Bumper),
			VignettePath:    c.asset(f.Vignette),
			TagPadding:      f.Padding,
		}
	}
	return specs
}

// FormatByKey looks up a format by its settings key, e.g. "800x600".
func (c Config) FormatByKey(key string) (pipeline.FormatSpec, bool) {
	for _, f := range c.FormatSpecs() {
		if f.Key == key {
			return f, true
		}
	}
	return pipeline.FormatSpec{}, false
}

// SharedAssets returns the logo and font paths.
func (c Config) SharedAssets() pipeline.SharedAssets {
	return pipeline.SharedAssets{
		LogoPath: c.asset(c.Assets.Logo),
		FontPath: c.asset(c.Assets.Font),
	}
}

// DerivedSpecs returns the derived mapping keyed by primary label.
func (c Config) DerivedSpecs() map[string][]pipeline.DerivedSpec {
	out := make(map[string][]pipeline.DerivedSpec, len(c.Derived))
	for base, specs := range c.Derived {
		for _, d := range specs {
			out[base] = append(out[base], pipeline.DerivedSpec{
				Label:           d.Label,
				Width:           d.Width,
				Height:          d.Height,
				DurationSeconds: d.Duration,
			})
		}
	}
	return out
}

func (c Config) asset(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dirs.Assets, name)
}

// ParseColor parses a "#RRGGBB" or "#RGB" hex string to color.Color.
// Malformed input yields black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}

	var rgb [3]uint8
	for i := range rgb {
		rgb[i] = hexValue(hex[2*i])<<4 | hexValue(hex[2*i+1])
	}

	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
