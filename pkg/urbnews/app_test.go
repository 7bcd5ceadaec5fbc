package urbnews

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/sidneyts/NOTICIAS/pkg/adapters/ggrenderer"
	"github.com/sidneyts/NOTICIAS/pkg/adapters/logger"
	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/config"
	"github.com/sidneyts/NOTICIAS/pkg/mocks"
	"github.com/sidneyts/NOTICIAS/pkg/params"
	"github.com/sidneyts/NOTICIAS/pkg/ports"
)

type testApp struct {
	*App
	fs       *mocks.FileSystem
	settings *mocks.SettingsStore
	archiver *mocks.Archiver
	encs     *mocks.EncoderFactory
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Formats = []config.FormatConfig{
		{Key: "1920x1080", Label: "WIDEFULLHD", Width: 32, Height: 18, Duration: 1, Bumper: "bumper.webm", Vignette: "fade.png"},
		{Key: "1080x1920", Label: "VERTICAL", Width: 18, Height: 32, Duration: 1, Bumper: "bumper.webm", Vignette: "fade.png"},
	}
	cfg.Derived = map[string][]config.DerivedConfig{
		"VERTICAL": {{Label: "MUB-FOR-SP", Width: 9, Height: 16, Duration: 1}},
	}
	return cfg
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	raster := ggrenderer.New()
	fs := mocks.NewFileSystem()

	vignette := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 3; i < len(vignette.Pix); i += 4 {
		vignette.Pix[i] = 200
	}
	fade, err := raster.EncodeImage(vignette, ports.FormatPNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	logo, err := raster.EncodeImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)), ports.FormatPNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	fs.SetFile("assets/bumper.webm", []byte("webm"))
	fs.SetFile("assets/fade.png", fade)
	fs.SetFile("assets/logo.png", logo)
	fs.SetFile("assets/Figtree-Bold.ttf", []byte("ttf"))

	media := mocks.NewMediaOpener()
	media.OpenFunc = func(ctx context.Context, path string) (ports.FrameSource, error) {
		if ok, _ := fs.Exists(path); !ok {
			return nil, errors.New("open " + path + ": no such file")
		}
		if strings.HasSuffix(path, ".jpg") {
			return mocks.NewStillSource(16, 9, image.White.C), nil
		}
		return mocks.NewVideoSource(16, 9, 30, 30), nil
	}
	prober := &mocks.MediaProber{ProbeFunc: func(ctx context.Context, path string) (ports.MediaInfo, error) {
		return ports.MediaInfo{FrameRate: 30}, nil
	}}

	ta := &testApp{
		fs:       fs,
		settings: &mocks.SettingsStore{},
		archiver: &mocks.Archiver{FS: fs},
		encs:     &mocks.EncoderFactory{},
	}
	app, err := New(context.Background(), testConfig(), logger.NewNoop(), Adapters{
		FS:       fs,
		Media:    media,
		Prober:   prober,
		Encoders: ta.encs.Factory(),
		Fonts:    (&mocks.FontLoader{}).Opener(),
		Settings: ta.settings,
		Archiver: ta.archiver,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ta.App = app
	return ta
}

func (ta *testApp) document(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(ta.settings.Data(), &doc); err != nil {
		t.Fatalf("settings document: %v", err)
	}
	return doc
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Formats = nil
	if _, err := New(context.Background(), cfg, logger.NewNoop(), Adapters{FS: mocks.NewFileSystem()}); err == nil {
		t.Error("expected error for empty format table")
	}
}

func TestApp_UploadMedia(t *testing.T) {
	ta := newTestApp(t)
	ta.fs.SetFile("uploads/user_media.png", []byte("old"))

	stored, err := ta.UploadMedia(context.Background(), "Foto Praia.JPG", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("UploadMedia failed: %v", err)
	}

	if stored != "user_media.jpg" {
		t.Errorf("stored = %q", stored)
	}
	if _, ok := ta.fs.GetFile("uploads/user_media.png"); ok {
		t.Error("previous media should be removed")
	}
	if data, _ := ta.fs.GetFile("uploads/user_media.jpg"); string(data) != "jpeg bytes" {
		t.Errorf("stored data = %q", data)
	}
	doc := ta.document(t)
	if doc["userMediaFilename"] != "user_media.jpg" || doc["userMediaOriginalFilename"] != "Foto Praia.JPG" {
		t.Errorf("document = %v", doc)
	}
}

func TestApp_UploadMedia_Unsupported(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.UploadMedia(context.Background(), "notes.txt", strings.NewReader("x"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if ta.settings.Saves != 0 {
		t.Error("settings should not be touched")
	}
}

func TestApp_Generate(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	if _, err := ta.UploadMedia(ctx, "clip.mp4", strings.NewReader("mp4")); err != nil {
		t.Fatal(err)
	}

	result, err := ta.Generate(ctx, map[string]any{params.KeyTag: "Teste"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Primary) != 2 || len(result.Derived) != 1 {
		t.Fatalf("unexpected results %v %v", result.Primary, result.Derived)
	}
	for _, r := range result.Results() {
		if !r.OK() || r.Frames != 30 {
			t.Errorf("%s: %+v", r.Label, r)
		}
		if !strings.HasSuffix(r.OutputPath, "_URBNEWS_TESTE.mp4") {
			t.Errorf("unexpected output name %s", r.OutputPath)
		}
	}
	if !strings.HasPrefix(filepath.Base(result.ArchivePath), "Urbnews_Videos_") {
		t.Errorf("ArchivePath = %q", result.ArchivePath)
	}
	if len(ta.archiver.Calls) != 1 || len(ta.archiver.Calls[0].Files) != 3 {
		t.Errorf("unexpected archive calls %+v", ta.archiver.Calls)
	}
	if got := ta.Retention().Len(); got != 4 {
		t.Errorf("expected 4 retained files, got %d", got)
	}
}

func TestApp_Generate_NoMedia(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.Generate(context.Background(), nil, nil)
	if !errors.Is(err, apperr.ErrMediaRead) {
		t.Errorf("expected media read error, got %v", err)
	}

	// Recorded in the document but gone from disk
	if _, err := ta.SaveSettings(context.Background(), map[string]any{"userMediaFilename": "user_media.mp4"}); err != nil {
		t.Fatal(err)
	}
	if _, err := ta.Generate(context.Background(), nil, nil); !errors.Is(err, apperr.ErrMediaRead) {
		t.Errorf("expected media read error for missing file, got %v", err)
	}
}

func TestApp_Preview(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	if _, err := ta.UploadMedia(ctx, "photo.jpg", strings.NewReader("jpg")); err != nil {
		t.Fatal(err)
	}

	res, err := ta.Preview(ctx, "1080x1920", nil)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if res.Path != filepath.Join("output", "preview.jpg") || res.FrameIndex != 150 {
		t.Errorf("unexpected result %+v", res)
	}
	data, ok := ta.fs.GetFile(res.Path)
	if !ok || len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("preview should be a JPEG")
	}
	if len(ta.encs.Encoders) != 0 {
		t.Error("preview should not start an encoder")
	}

	if _, err := ta.Preview(ctx, "640x480", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApp_Preview_SelectedFormat(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	if _, err := ta.UploadMedia(ctx, "photo.jpg", strings.NewReader("jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := ta.SaveSettings(ctx, map[string]any{"selectedFormat": "1080x1920"}); err != nil {
		t.Fatal(err)
	}

	if _, err := ta.Preview(ctx, "", nil); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	img, err := ggrenderer.New().DecodeImage(ta.fs.GetAllFiles()[ta.PreviewPath()])
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Image.Bounds(); b.Dx() != 18 || b.Dy() != 32 {
		t.Errorf("preview size = %v, want the selected 18x32 format", b)
	}
}

func TestApp_Settings(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	doc, err := ta.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc[params.KeyTag] != "RETRANCA" {
		t.Errorf("default tag = %v", doc[params.KeyTag])
	}
	if ta.settings.Saves != 1 {
		t.Errorf("defaults should be written once, saves = %d", ta.settings.Saves)
	}

	doc, err = ta.SaveSettings(ctx, map[string]any{
		params.KeyTitle: "Nova manchete",
		"formats":       map[string]any{"800x600": map[string]any{params.KeyTagPadX: 20}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc[params.KeyTitle] != "Nova manchete" || doc[params.KeyTag] != "RETRANCA" {
		t.Errorf("merge lost keys: %v", doc)
	}
}

func TestApp_OutputFile(t *testing.T) {
	ta := newTestApp(t)
	ta.fs.SetFile("output/video.mp4", []byte("mp4"))

	path, err := ta.OutputFile("video.mp4")
	if err != nil || path != filepath.Join("output", "video.mp4") {
		t.Errorf("OutputFile = %q, %v", path, err)
	}
	for _, name := range []string{"", "../settings.json", "sub/video.mp4", ".hidden", "missing.mp4"} {
		if _, err := ta.OutputFile(name); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("OutputFile(%q) should be not found, got %v", name, err)
		}
	}

	if path, err := ta.AssetFile("logo.png"); err != nil || path != filepath.Join("assets", "logo.png") {
		t.Errorf("AssetFile = %q, %v", path, err)
	}
	if _, err := ta.AssetFile("../uploads/user_media.jpg"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("AssetFile should reject traversal, got %v", err)
	}
}

func TestApp_StartClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	ta := newTestApp(t)
	ta.fs.SetFile("output/old.mp4", []byte("mp4"))
	ta.fs.SetModTime("output/old.mp4", time.Now().Add(-time.Minute))

	if err := ta.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if ta.Retention().Len() != 1 {
		t.Errorf("existing output should be adopted, tracked %d", ta.Retention().Len())
	}
	if err := ta.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestIsSupportedMedia(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg": true, "a.JPEG": true, "a.webp": true, "a.mp4": true, "a.MOV": true,
		"a.txt": false, "noext": false,
	} {
		if got := IsSupportedMedia(name); got != want {
			t.Errorf("IsSupportedMedia(%q) = %v", name, got)
		}
	}
}

func TestQualityPresets(t *testing.T) {
	cfg := config.Defaults()
	ApplyQuality(&cfg, QualityHigh)
	if cfg.Encoder.CRF != 18 || cfg.Encoder.Preset != "slow" {
		t.Errorf("high = %+v", cfg.Encoder)
	}
	ApplyQuality(&cfg, "")
	if cfg.Encoder.CRF != 18 {
		t.Error("empty preset should keep settings")
	}
	if GetQualitySettings("unknown") != GetQualitySettings(QualityMedium) {
		t.Error("unknown preset should be medium")
	}
}
