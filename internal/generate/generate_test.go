package generate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/tinct-cosmic/internal/cache"
	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/extract"
)

// fakeExtractor returns canned palettes and counts invocations.
type fakeExtractor struct {
	palettes []colour.Palette
	err      error
	calls    int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ extract.Config) (colour.Palette, error) {
	f.calls++
	if f.err != nil {
		return colour.Palette{}, f.err
	}
	return f.palettes[min(f.calls, len(f.palettes))-1], nil
}

func palette(seed uint8) colour.Palette {
	var p colour.Palette
	p.Background = colour.RGB{R: seed, G: seed, B: seed}
	p.Foreground = colour.RGB{R: 255 - seed, G: 255 - seed, B: 255 - seed}
	p.Cursor = p.Foreground
	for i := range p.Colours {
		p.Colours[i] = colour.RGB{R: seed + uint8(i), G: uint8(i * 10), B: 100}
	}
	return p
}

func wallpaper(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 7), B: 60, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "w.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create wallpaper: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode wallpaper: %v", err)
	}
	return path
}

func TestGenerateCacheMissPopulates(t *testing.T) {
	store := cache.NewStore(t.TempDir(), nil)
	fake := &fakeExtractor{palettes: []colour.Palette{palette(1)}}
	gen := New(store, fake, nil)

	res, err := gen.Generate(context.Background(), wallpaper(t), extract.DefaultConfig(), false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("extractor called %d times, want 1", fake.calls)
	}
	if res.FromCache {
		t.Error("FromCache = true on a miss")
	}
	if !store.IsPresent(res.Fingerprint) {
		t.Error("cache not populated after miss")
	}
	if got, _ := store.Lookup(res.Fingerprint); got != palette(1) {
		t.Errorf("cached palette = %v, want %v", got, palette(1))
	}
}

func TestGenerateHitSkipsExtraction(t *testing.T) {
	store := cache.NewStore(t.TempDir(), nil)
	fake := &fakeExtractor{palettes: []colour.Palette{palette(1), palette(2)}}
	gen := New(store, fake, nil)
	wall := wallpaper(t)

	if _, err := gen.Generate(context.Background(), wall, extract.DefaultConfig(), false); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	res, err := gen.Generate(context.Background(), wall, extract.DefaultConfig(), false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("extractor called %d times, want 1", fake.calls)
	}
	if !res.FromCache || res.Palette != palette(1) {
		t.Errorf("Generate() = %+v, want cached palette(1)", res)
	}
}

func TestGenerateOverwriteBypassesCache(t *testing.T) {
	store := cache.NewStore(t.TempDir(), nil)
	wall := wallpaper(t)
	cfg := extract.DefaultConfig()

	fp, err := cache.ComputeFingerprint(wall, cfg)
	if err != nil {
		t.Fatalf("ComputeFingerprint() error = %v", err)
	}
	if err := store.Store(fp, palette(9)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	fake := &fakeExtractor{palettes: []colour.Palette{palette(3)}}
	res, err := New(store, fake, nil).Generate(context.Background(), wall, cfg, true)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("extractor called %d times, want 1", fake.calls)
	}
	if res.FromCache || res.Palette != palette(3) {
		t.Errorf("Generate() returned stale palette: %+v", res)
	}
	if got, _ := store.Lookup(fp); got != palette(3) {
		t.Error("cache entry not overwritten")
	}
}

func TestGenerateCorruptEntryFallsBack(t *testing.T) {
	store := cache.NewStore(t.TempDir(), nil)
	wall := wallpaper(t)
	cfg := extract.DefaultConfig()

	fp, _ := cache.ComputeFingerprint(wall, cfg)
	if err := os.MkdirAll(filepath.Dir(store.Path(fp)), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(store.Path(fp), []byte{0xde, 0xad, 0xbe, 0xef}, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	fake := &fakeExtractor{palettes: []colour.Palette{palette(4)}}
	res, err := New(store, fake, nil).Generate(context.Background(), wall, cfg, false)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fake.calls != 1 || res.Palette != palette(4) {
		t.Errorf("Generate() = %+v after %d calls, want fresh palette(4)", res, fake.calls)
	}
	if got, ok := store.Lookup(fp); !ok || got != palette(4) {
		t.Error("corrupt entry not replaced")
	}
}

func TestGenerateStoreFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	fake := &fakeExtractor{palettes: []colour.Palette{palette(5)}}
	res, err := New(cache.NewStore(root, nil), fake, nil).Generate(context.Background(), wallpaper(t), extract.DefaultConfig(), false)
	if err != nil {
		t.Fatalf("Generate() error = %v, want nil despite unwritable cache", err)
	}
	if res.Palette != palette(5) {
		t.Errorf("Generate() palette = %v, want palette(5)", res.Palette)
	}
}

func TestGenerateExtractError(t *testing.T) {
	boom := errors.New("decoder exploded")
	fake := &fakeExtractor{err: boom}
	_, err := New(cache.NewStore(t.TempDir(), nil), fake, nil).Generate(context.Background(), wallpaper(t), extract.DefaultConfig(), false)

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Generate() error = %v, want *ExtractError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("ExtractError does not wrap the extractor error")
	}
}

func TestGenerateMissingWallpaper(t *testing.T) {
	fake := &fakeExtractor{palettes: []colour.Palette{palette(1)}}
	_, err := New(cache.NewStore(t.TempDir(), nil), fake, nil).Generate(context.Background(), filepath.Join(t.TempDir(), "nope.png"), extract.DefaultConfig(), false)
	if err == nil {
		t.Fatal("Generate() expected error for missing wallpaper")
	}
	if fake.calls != 0 {
		t.Errorf("extractor called %d times, want 0", fake.calls)
	}
}

// The full pipeline with the real extractor and the fastest-dominant backend.
func TestGenerateEndToEnd(t *testing.T) {
	cacheRoot := t.TempDir()
	store := cache.NewStore(cacheRoot, nil)
	counting := &countingExtractor{inner: extract.NewImageExtractor(nil)}
	gen := New(store, counting, nil)
	wall := wallpaper(t)
	cfg := extract.Config{Backend: extract.BackendFastestDominant, Threshold: 20, Colours: 16, Mode: extract.ModeDark}

	first, err := gen.Generate(context.Background(), wall, cfg, false)
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if !store.IsPresent(first.Fingerprint) {
		t.Fatal("cache file missing after first call")
	}

	second, err := gen.Generate(context.Background(), wall, cfg, false)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if !second.FromCache || second.Palette != first.Palette || counting.calls != 1 {
		t.Errorf("second call: FromCache=%v calls=%d, want cached P1 without extraction", second.FromCache, counting.calls)
	}

	third, err := gen.Generate(context.Background(), wall, cfg, true)
	if err != nil {
		t.Fatalf("third Generate() error = %v", err)
	}
	if third.FromCache || counting.calls != 2 {
		t.Errorf("third call: FromCache=%v calls=%d, want fresh extraction", third.FromCache, counting.calls)
	}
	if third.Palette != first.Palette {
		t.Error("deterministic extraction produced a different palette")
	}
	if got, _ := store.Lookup(third.Fingerprint); got != third.Palette {
		t.Error("cache not overwritten by third call")
	}
}

type countingExtractor struct {
	inner extract.Extractor
	calls int
}

func (c *countingExtractor) Extract(ctx context.Context, wallpaper string, cfg extract.Config) (colour.Palette, error) {
	c.calls++
	return c.inner.Extract(ctx, wallpaper, cfg)
}
