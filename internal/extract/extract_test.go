package extract

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// gradient returns a w×h image with a smooth two-axis gradient.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255})
		}
	}
	return img
}

// split returns an image whose first redRows rows are red and the rest blue.
func split(w, h, redRows int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{B: 255, A: 255}
		if y < redRows {
			c = color.RGBA{R: 255, A: 255}
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeImage(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wall.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "default", modify: func(*Config) {}},
		{name: "kmeans", modify: func(c *Config) { c.Backend = BackendKMeans }},
		{name: "plugin", modify: func(c *Config) { c.Backend = "plugin:/usr/lib/backend" }},
		{name: "plugin without path", modify: func(c *Config) { c.Backend = "plugin:" }, wantErr: true},
		{name: "unknown backend", modify: func(c *Config) { c.Backend = "wal" }, wantErr: true},
		{name: "negative threshold", modify: func(c *Config) { c.Threshold = -1 }, wantErr: true},
		{name: "zero colours", modify: func(c *Config) { c.Colours = 0 }, wantErr: true},
		{name: "bad mode", modify: func(c *Config) { c.Mode = "dim" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPluginPath(t *testing.T) {
	cfg := Config{Backend: "plugin:/opt/backend"}
	path, ok := cfg.PluginPath()
	if !ok || path != "/opt/backend" {
		t.Errorf("PluginPath() = %q, %v; want /opt/backend, true", path, ok)
	}
	if _, ok := DefaultConfig().PluginPath(); ok {
		t.Error("PluginPath() on built-in backend reported a plugin")
	}
}

func TestConfigCanonicalIsStable(t *testing.T) {
	a, err := DefaultConfig().Canonical()
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	b, _ := DefaultConfig().Canonical()
	if string(a) != string(b) {
		t.Errorf("Canonical() not stable: %s vs %s", a, b)
	}
	want := `{"backend":"resized","threshold":20,"colours":16,"mode":"dark"}`
	if string(a) != want {
		t.Errorf("Canonical() = %s, want %s", a, want)
	}
}

func TestMergeSimilar(t *testing.T) {
	red := colour.RGB{R: 255}
	nearRed := colour.RGB{R: 250, G: 5, B: 5}
	blue := colour.RGB{B: 255}
	input := []weighted{{c: red, weight: 0.5}, {c: nearRed, weight: 0.25}, {c: blue, weight: 0.25}}

	merged := mergeSimilar(input, 20)
	if len(merged) != 2 {
		t.Fatalf("mergeSimilar() kept %d colours, want 2", len(merged))
	}
	if merged[0].c != red || merged[0].weight != 0.75 {
		t.Errorf("merged[0] = %+v, want red with weight 0.75", merged[0])
	}
	if merged[1].c != blue {
		t.Errorf("merged[1] = %v, want blue", merged[1].c)
	}

	if got := mergeSimilar(input, 0); len(got) != 3 {
		t.Errorf("mergeSimilar(threshold 0) kept %d colours, want 3", len(got))
	}
}

func TestDominantBackend(t *testing.T) {
	got := dominantBackend{}.extract(split(8, 8, 5), 16)
	if len(got) != 2 {
		t.Fatalf("extract() returned %d colours, want 2", len(got))
	}
	if got[0].c != (colour.RGB{R: 255}) {
		t.Errorf("most frequent colour = %v, want red", got[0].c)
	}
	if got[0].weight != 40.0/64.0 {
		t.Errorf("red weight = %v, want %v", got[0].weight, 40.0/64.0)
	}

	if limited := (dominantBackend{}).extract(gradient(64, 64), 3); len(limited) != 3 {
		t.Errorf("extract(k=3) returned %d colours", len(limited))
	}
}

func TestKMeansBackend(t *testing.T) {
	t.Run("deterministic for a seed", func(t *testing.T) {
		img := gradient(80, 60)
		seed := contentSeed(img)
		a := newKMeansBackend().extract(img, 4, seed)
		b := newKMeansBackend().extract(img, 4, seed)
		if len(a) == 0 || len(a) > 4 {
			t.Fatalf("extract() returned %d clusters, want 1..4", len(a))
		}
		if len(a) != len(b) {
			t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("cluster %d differs: %+v vs %+v", i, a[i], b[i])
			}
		}
	})

	t.Run("fewer colours than clusters", func(t *testing.T) {
		got := newKMeansBackend().extract(split(10, 10, 3), 16, 1)
		if len(got) != 2 {
			t.Fatalf("extract() returned %d clusters, want 2", len(got))
		}
		if got[0].c != (colour.RGB{B: 255}) {
			t.Errorf("heaviest cluster = %v, want blue", got[0].c)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		if got := newKMeansBackend().extract(image.NewRGBA(image.Rect(0, 0, 0, 0)), 4, 1); got != nil {
			t.Errorf("extract() = %v, want nil", got)
		}
	})
}

func TestContentSeed(t *testing.T) {
	if contentSeed(gradient(32, 32)) != contentSeed(gradient(32, 32)) {
		t.Error("contentSeed() differs for identical images")
	}
	if contentSeed(gradient(32, 32)) == contentSeed(split(32, 32, 16)) {
		t.Error("contentSeed() equal for different images")
	}
}

func TestBuildScheme(t *testing.T) {
	ws := []weighted{
		{c: colour.RGB{R: 30, G: 40, B: 60}, weight: 0.4},
		{c: colour.RGB{R: 200, G: 80, B: 60}, weight: 0.3},
		{c: colour.RGB{R: 90, G: 180, B: 120}, weight: 0.2},
		{c: colour.RGB{R: 240, G: 230, B: 200}, weight: 0.1},
	}

	for _, mode := range []Mode{ModeDark, ModeLight} {
		t.Run(string(mode), func(t *testing.T) {
			p, err := buildScheme(ws, mode)
			if err != nil {
				t.Fatalf("buildScheme() error = %v", err)
			}
			if p.IsDark() != (mode == ModeDark) {
				t.Errorf("IsDark() = %v for mode %s", p.IsDark(), mode)
			}
			if p.Colours[0] != p.Background || p.Colours[7] != p.Foreground || p.Colours[15] != p.Foreground {
				t.Error("background/foreground slots not populated")
			}
			if p.Cursor != p.Foreground {
				t.Errorf("Cursor = %v, want foreground %v", p.Cursor, p.Foreground)
			}
			for i := 2; i <= 6; i++ {
				if p.Colours[i].Lightness() < p.Colours[i-1].Lightness() {
					t.Errorf("accents not ordered by lightness at slot %d", i)
				}
			}
		})
	}

	if _, err := buildScheme(nil, ModeDark); err == nil {
		t.Error("buildScheme(nil) expected error")
	}
}

func TestParseHexColours(t *testing.T) {
	got, err := parseHexColours([]string{"#ff0000", "#00ff00"})
	if err != nil {
		t.Fatalf("parseHexColours() error = %v", err)
	}
	if len(got) != 2 || got[0].weight <= got[1].weight {
		t.Errorf("parseHexColours() = %+v, want descending weights", got)
	}
	if _, err := parseHexColours([]string{"#ff0000", "nope"}); err == nil {
		t.Error("parseHexColours() expected error for bad hex")
	}
}

func TestImageExtractorExtract(t *testing.T) {
	wallpaper := writeImage(t, gradient(120, 90))
	extractor := NewImageExtractor(nil)

	for _, backend := range BuiltinBackends() {
		t.Run(backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend
			p, err := extractor.Extract(context.Background(), wallpaper, cfg)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if p.Colours[0] != p.Background {
				t.Errorf("slot 0 = %v, want background %v", p.Colours[0], p.Background)
			}
		})
	}

	t.Run("same input same palette", func(t *testing.T) {
		a, err := extractor.Extract(context.Background(), wallpaper, DefaultConfig())
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		b, _ := extractor.Extract(context.Background(), wallpaper, DefaultConfig())
		if a != b {
			t.Error("Extract() is not deterministic")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = "nope"
		if _, err := extractor.Extract(context.Background(), wallpaper, cfg); err == nil {
			t.Error("Extract() expected error")
		}
	})

	t.Run("missing wallpaper", func(t *testing.T) {
		if _, err := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "x.png"), DefaultConfig()); err == nil {
			t.Error("Extract() expected error")
		}
	})

	t.Run("plugin not executable", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backend = PluginBackendPrefix + wallpaper
		_, err := extractor.Extract(context.Background(), wallpaper, cfg)
		if err == nil || !strings.Contains(err.Error(), "not executable") {
			t.Errorf("Extract() error = %v, want not executable", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := extractor.Extract(ctx, wallpaper, DefaultConfig()); err == nil {
			t.Error("Extract() expected error on cancelled context")
		}
	})
}
