package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/cosmic"
	"github.com/jmylchreest/tinct-cosmic/internal/wallsettings"
)

// fakeConsumers records what the generate command hands to the desktop and
// terminal consumers.
type fakeConsumers struct {
	mu           sync.Mutex
	desktopCalls int
	desktopDark  bool
	terminalDirs []string
	desktopErr   error
	terminalErr  error
}

func (f *fakeConsumers) desktop(_ context.Context, _ colour.Palette, isDark bool, _ hclog.Logger) (cosmic.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.desktopCalls++
	f.desktopDark = isDark
	if f.desktopErr != nil {
		return cosmic.Theme{}, f.desktopErr
	}
	return cosmic.Theme{Name: "cosmic-dark", IsDark: isDark}, nil
}

func (f *fakeConsumers) terminal(cacheDir string, _ colour.Palette, _ hclog.Logger) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminalDirs = append(f.terminalDirs, cacheDir)
	return 2, f.terminalErr
}

type testEnv struct {
	wallpaper string
	cacheDir  string
	config    string
	fakes     *fakeConsumers
}

func setupTest(t *testing.T, configBody string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	wallpaper := filepath.Join(dir, "wall.png")
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	quadrants := []color.RGBA{
		{R: 20, G: 24, B: 40, A: 255},
		{R: 200, G: 80, B: 60, A: 255},
		{R: 60, G: 160, B: 90, A: 255},
		{R: 230, G: 220, B: 200, A: 255},
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, quadrants[(y/16)*2+x/16])
		}
	}
	f, err := os.Create(wallpaper)
	if err != nil {
		t.Fatalf("Failed to create wallpaper: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode wallpaper: %v", err)
	}
	f.Close()

	config := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(config, []byte(configBody), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return &testEnv{
		wallpaper: wallpaper,
		cacheDir:  filepath.Join(dir, "cache"),
		config:    config,
		fakes:     &fakeConsumers{},
	}
}

// run executes the command tree with the given arguments after the common ones.
func (e *testEnv) run(args ...string) (string, string, error) {
	rootCmd := newRootCmd(&rootOptions{desktop: e.fakes.desktop, terminal: e.fakes.terminal})
	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(append([]string{"--config", e.config, "-c", e.cacheDir}, args...))
	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func countPalettes(t *testing.T, cacheDir string) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(cacheDir, "palettes"))
	if err != nil {
		t.Fatalf("Failed to read palette cache: %v", err)
	}
	return len(entries)
}

func TestGenerateCommand(t *testing.T) {
	env := setupTest(t, "")

	out, stderr, err := env.run("generate", "-w", env.wallpaper, "--backend", "fastest-dominant", "--theme", "dark")
	if err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr)
	}

	if !strings.Contains(out, "background") || !strings.Contains(out, "colour15") {
		t.Errorf("palette not printed, stdout:\n%s", out)
	}
	if env.fakes.desktopCalls != 1 || !env.fakes.desktopDark {
		t.Errorf("desktop calls = %d dark = %v, want 1 call with dark", env.fakes.desktopCalls, env.fakes.desktopDark)
	}
	if len(env.fakes.terminalDirs) != 1 || env.fakes.terminalDirs[0] != env.cacheDir {
		t.Errorf("terminal dirs = %v, want [%s]", env.fakes.terminalDirs, env.cacheDir)
	}
	if !strings.Contains(stderr, "✓ desktop: cosmic-dark") || !strings.Contains(stderr, "✓ terminal: 2 terminal(s)") {
		t.Errorf("missing consumer report, stderr:\n%s", stderr)
	}
	if n := countPalettes(t, env.cacheDir); n != 1 {
		t.Errorf("cached palettes = %d, want 1", n)
	}
}

func TestGenerateAlias(t *testing.T) {
	env := setupTest(t, "")

	if _, stderr, err := env.run("gen", "-w", env.wallpaper, "-b", "fastest-dominant", "--skip-desktop", "--skip-terminal"); err != nil {
		t.Fatalf("gen failed: %v\nstderr: %s", err, stderr)
	}
	if env.fakes.desktopCalls != 0 || len(env.fakes.terminalDirs) != 0 {
		t.Errorf("consumers ran despite skip flags: desktop=%d terminal=%d",
			env.fakes.desktopCalls, len(env.fakes.terminalDirs))
	}
}

func TestGenerateRemembersSettings(t *testing.T) {
	env := setupTest(t, "")
	skip := []string{"--skip-desktop", "--skip-terminal"}

	args := append([]string{"generate", "-w", env.wallpaper, "--backend", "dominant", "--threshold", "10"}, skip...)
	if _, stderr, err := env.run(args...); err != nil {
		t.Fatalf("first run failed: %v\nstderr: %s", err, stderr)
	}

	store, err := wallsettings.Open(env.cacheDir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, ok, err := store.Get(env.wallpaper)
	store.Close()
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
	if got.Backend != "dominant" || got.Threshold != 10 {
		t.Errorf("remembered %+v, want backend dominant threshold 10", got)
	}

	// Same wallpaper without flags reuses the remembered settings, so the
	// fingerprint and the cache entry are the same.
	if _, stderr, err := env.run(append([]string{"generate", "-w", env.wallpaper}, skip...)...); err != nil {
		t.Fatalf("second run failed: %v\nstderr: %s", err, stderr)
	}
	if n := countPalettes(t, env.cacheDir); n != 1 {
		t.Errorf("cached palettes after remembered run = %d, want 1", n)
	}

	// Ignoring remembered settings falls back to the defaults.
	if _, stderr, err := env.run(append([]string{"generate", "-w", env.wallpaper, "--skip-cached-settings"}, skip...)...); err != nil {
		t.Fatalf("third run failed: %v\nstderr: %s", err, stderr)
	}
	if n := countPalettes(t, env.cacheDir); n != 2 {
		t.Errorf("cached palettes after skipping settings = %d, want 2", n)
	}
}

func TestGenerateConsumerFailure(t *testing.T) {
	env := setupTest(t, "")
	env.fakes.desktopErr = errors.New("settings daemon unavailable")

	out, stderr, err := env.run("generate", "-w", env.wallpaper, "-b", "fastest-dominant")
	if err == nil {
		t.Fatal("expected error when the desktop consumer fails")
	}
	if !strings.Contains(err.Error(), "1 of 2 consumer(s) failed") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(stderr, "✗ desktop failed: settings daemon unavailable") {
		t.Errorf("missing failure report, stderr:\n%s", stderr)
	}
	if !strings.Contains(stderr, "✓ terminal") {
		t.Errorf("terminal success not reported, stderr:\n%s", stderr)
	}
	if !strings.Contains(out, "background") {
		t.Error("palette must be printed even when a consumer fails")
	}
}

func TestGenerateTemplates(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "colors.tmpl")
	target := filepath.Join(dir, "out", "colors.conf")
	if err := os.WriteFile(tmpl, []byte("background={{ hex .Background }}\n"), 0o600); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}
	env := setupTest(t, "[templates.colors]\ntemplate = \""+tmpl+"\"\ntarget = \""+target+"\"\n")
	skip := []string{"--skip-desktop", "--skip-terminal"}

	if _, stderr, err := env.run(append([]string{"generate", "-w", env.wallpaper, "--skip-template-generation"}, skip...)...); err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("template rendered despite --skip-template-generation: %v", err)
	}

	_, stderr, err := env.run(append([]string{"generate", "-w", env.wallpaper}, skip...)...)
	if err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("template target not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "background=#") {
		t.Errorf("rendered template = %q", data)
	}
	if !strings.Contains(stderr, "✓ templates: 1 of 1 written") {
		t.Errorf("missing template report, stderr:\n%s", stderr)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(env *testEnv) []string
		wantErr string
	}{
		{
			name:    "missing wallpaper flag",
			args:    func(*testEnv) []string { return []string{"generate"} },
			wantErr: "wallpaper",
		},
		{
			name: "wallpaper not found",
			args: func(env *testEnv) []string {
				return []string{"generate", "-w", filepath.Join(env.cacheDir, "nope.png")}
			},
			wantErr: "image file not found",
		},
		{
			name:    "invalid backend",
			args:    func(env *testEnv) []string { return []string{"generate", "-w", env.wallpaper, "-b", "magic"} },
			wantErr: "invalid backend",
		},
		{
			name:    "invalid theme",
			args:    func(env *testEnv) []string { return []string{"generate", "-w", env.wallpaper, "--theme", "dim"} },
			wantErr: "invalid theme",
		},
		{
			name:    "threshold out of range",
			args:    func(env *testEnv) []string { return []string{"generate", "-w", env.wallpaper, "--threshold", "101"} },
			wantErr: "threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTest(t, "")
			_, _, err := env.run(tt.args(env)...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
			if env.fakes.desktopCalls != 0 || len(env.fakes.terminalDirs) != 0 {
				t.Error("consumers must not run when generation fails")
			}
		})
	}
}

func TestDaemonCommand(t *testing.T) {
	env := setupTest(t, "")
	_, _, err := env.run("daemon")
	if !errors.Is(err, errDaemonNotImplemented) {
		t.Errorf("daemon error = %v, want %v", err, errDaemonNotImplemented)
	}
}

func TestThemeResolution(t *testing.T) {
	dark := colour.Palette{Background: colour.RGB{R: 10, G: 10, B: 12}}
	light := colour.Palette{Background: colour.RGB{R: 240, G: 238, B: 230}}

	tests := []struct {
		theme    string
		palette  colour.Palette
		wantMode string
		wantDark bool
	}{
		{theme: "dark", palette: light, wantMode: "dark", wantDark: true},
		{theme: "light", palette: dark, wantMode: "light", wantDark: false},
		{theme: "auto", palette: dark, wantMode: "dark", wantDark: true},
		{theme: "auto", palette: light, wantMode: "dark", wantDark: false},
	}

	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			if got := string(extractionMode(tt.theme)); got != tt.wantMode {
				t.Errorf("extractionMode(%q) = %q, want %q", tt.theme, got, tt.wantMode)
			}
			if got := themeIsDark(tt.theme, tt.palette); got != tt.wantDark {
				t.Errorf("themeIsDark(%q) = %v, want %v", tt.theme, got, tt.wantDark)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	rootCmd := NewRootCmd()
	var outBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(outBuf.String(), "tinct-cosmic version") {
		t.Errorf("version output = %q", outBuf.String())
	}
}
