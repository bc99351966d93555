package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/jmylchreest/tinct-cosmic/internal/cache"
	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/config"
	"github.com/jmylchreest/tinct-cosmic/internal/cosmic"
	"github.com/jmylchreest/tinct-cosmic/internal/extract"
	"github.com/jmylchreest/tinct-cosmic/internal/generate"
	"github.com/jmylchreest/tinct-cosmic/internal/image"
	"github.com/jmylchreest/tinct-cosmic/internal/logging"
	"github.com/jmylchreest/tinct-cosmic/internal/settingsd"
	"github.com/jmylchreest/tinct-cosmic/internal/template"
	"github.com/jmylchreest/tinct-cosmic/internal/terminal"
	"github.com/jmylchreest/tinct-cosmic/internal/wallsettings"
)

type (
	desktopFunc  func(ctx context.Context, p colour.Palette, isDark bool, logger hclog.Logger) (cosmic.Theme, error)
	terminalFunc func(cacheDir string, p colour.Palette, logger hclog.Logger) (int, error)
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var wallpaper string

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate a palette from a wallpaper and apply it",
		Long: `Extract a colour palette from a wallpaper and apply it to the COSMIC desktop
theme and to every open terminal. Templates configured in config.toml are
rendered with the palette as well.

Palettes are cached by wallpaper content and extraction settings. The
backend, threshold and theme used for a wallpaper are remembered and reused
the next time the same wallpaper is generated, unless overridden on the
command line.

Examples:
  # Theme everything from a wallpaper
  tinct-cosmic generate -w ~/Pictures/wall.jpg

  # Re-extract with a different backend and a lower merge threshold
  tinct-cosmic generate -w wall.png --backend kmeans --threshold 12 --overwrite-cache

  # Only refresh terminals
  tinct-cosmic gen -w wall.png --skip-desktop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runGenerate(cmd, wallpaper)
		},
	}

	cmd.Flags().StringVarP(&wallpaper, "wallpaper", "w", "", "path to the wallpaper image (required)")
	_ = cmd.MarkFlagRequired("wallpaper")

	return cmd
}

func (o *rootOptions) runGenerate(cmd *cobra.Command, wallpaper string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Name:   "tinct-cosmic",
		Level:  logging.LevelFor(o.verbose, o.quiet, cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	cacheDir, err := o.resolveCacheDir(cfg)
	if err != nil {
		return err
	}

	if err := image.ValidateImagePath(wallpaper); err != nil {
		return err
	}
	if abs, err := filepath.Abs(wallpaper); err == nil {
		wallpaper = abs
	}

	settings, err := wallsettings.Open(cacheDir)
	if err != nil {
		logger.Warn("per-wallpaper settings unavailable", "error", err)
	} else {
		defer settings.Close()
	}

	explicit := o.explicitSettings(cmd.Flags())
	if settings != nil && !o.skipCachedSettings {
		remembered, ok, err := settings.Get(wallpaper)
		switch {
		case err != nil:
			logger.Warn("failed to read remembered settings", "wallpaper", wallpaper, "error", err)
		case ok:
			logger.Debug("using remembered settings", "wallpaper", wallpaper,
				"backend", remembered.Backend, "threshold", remembered.Threshold, "theme", remembered.Theme)
			applySettings(cfg, wallsettings.Merge(explicit, remembered))
		}
	}
	o.applyFlags(cmd.Flags(), cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	extCfg := cfg.Extraction(extractionMode(cfg.Theme))
	if err := extCfg.Validate(); err != nil {
		return err
	}

	gen := generate.New(
		cache.NewStore(cacheDir, logger.Named("cache")),
		extract.NewImageExtractor(logger.Named("extract")),
		logger,
	)
	result, err := gen.Generate(ctx, wallpaper, extCfg, o.overwriteCache)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := result.Palette.Print(out, isTerminal(out)); err != nil {
		return fmt.Errorf("failed to print palette: %w", err)
	}

	if settings != nil {
		remember := wallsettings.Settings{Backend: cfg.Backend, Threshold: cfg.Threshold, Theme: cfg.Theme}
		if err := settings.Put(wallpaper, remember); err != nil {
			logger.Warn("failed to remember settings", "wallpaper", wallpaper, "error", err)
		}
	}

	isDark := themeIsDark(cfg.Theme, result.Palette)
	results := o.runConsumers(ctx, cacheDir, result.Palette, isDark, logger)

	if !o.skipTemplates && len(cfg.Templates) > 0 {
		renderer := template.NewRenderer(logger.Named("template"))
		written, err := renderer.RenderAll(cfg.Templates, template.NewData(result.Palette, wallpaper))
		results = append(results, consumerResult{
			name:   "templates",
			detail: fmt.Sprintf("%d of %d written", len(written), len(cfg.Templates)),
			err:    err,
		})
	}

	return o.report(cmd.ErrOrStderr(), results)
}

// resolveCacheDir picks the cache directory from the flag, the config file or the
// user cache directory, in that order.
func (o *rootOptions) resolveCacheDir(cfg *config.Config) (string, error) {
	switch {
	case o.cacheDir != "":
		return o.cacheDir, nil
	case cfg.CacheDir != "":
		return cfg.CacheDir, nil
	default:
		return cache.DefaultDir()
	}
}

// explicitSettings returns the extraction settings given on the command line.
func (o *rootOptions) explicitSettings(flags *pflag.FlagSet) wallsettings.Settings {
	var s wallsettings.Settings
	if flags.Changed("backend") {
		s.Backend = o.backend
	}
	if flags.Changed("threshold") {
		s.Threshold = o.threshold
	}
	if flags.Changed("theme") {
		s.Theme = o.theme
	}
	return s
}

// applyFlags overrides configuration with flags that were set explicitly.
func (o *rootOptions) applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("threshold") {
		cfg.Threshold = o.threshold
	}
	if flags.Changed("theme") {
		cfg.Theme = o.theme
	}
	if flags.Changed("skip-desktop") {
		cfg.SkipDesktop = o.skipDesktop
	}
	if flags.Changed("skip-terminal") {
		cfg.SkipTerminal = o.skipTerminal
	}
	o.skipDesktop = cfg.SkipDesktop
	o.skipTerminal = cfg.SkipTerminal
}

func applySettings(cfg *config.Config, s wallsettings.Settings) {
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	if s.Threshold != 0 {
		cfg.Threshold = s.Threshold
	}
	if s.Theme != "" {
		cfg.Theme = s.Theme
	}
}

// extractionMode picks the scheme the palette is built for. Auto builds a dark
// scheme.
func extractionMode(theme string) extract.Mode {
	if theme == config.ThemeLight {
		return extract.ModeLight
	}
	return extract.ModeDark
}

// themeIsDark decides which desktop theme the palette is applied to.
func themeIsDark(theme string, p colour.Palette) bool {
	switch theme {
	case config.ThemeDark:
		return true
	case config.ThemeLight:
		return false
	default:
		return p.IsDark()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - File descriptors fit in int
}

type consumerResult struct {
	name   string
	detail string
	err    error
}

// runConsumers applies p to the desktop and to terminals concurrently.
func (o *rootOptions) runConsumers(ctx context.Context, cacheDir string, p colour.Palette, isDark bool, logger hclog.Logger) []consumerResult {
	var jobs []func() consumerResult

	if !o.skipDesktop {
		jobs = append(jobs, func() consumerResult {
			theme, err := o.desktop(ctx, p, isDark, logger)
			return consumerResult{name: "desktop", detail: theme.Name, err: err}
		})
	}
	if !o.skipTerminal {
		jobs = append(jobs, func() consumerResult {
			n, err := o.terminal(cacheDir, p, logger)
			return consumerResult{name: "terminal", detail: fmt.Sprintf("%d terminal(s)", n), err: err}
		})
	}

	results := make([]consumerResult, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = job()
		}()
	}
	wg.Wait()

	return results
}

// report prints one status line per consumer and returns an error if any failed.
func (o *rootOptions) report(w io.Writer, results []consumerResult) error {
	var errs []error
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "✗ %s failed: %v\n", r.name, r.err)
			errs = append(errs, fmt.Errorf("%s: %w", r.name, r.err))
			continue
		}
		if !o.quiet {
			fmt.Fprintf(w, "✓ %s: %s\n", r.name, r.detail)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d consumer(s) failed: %w", len(errs), len(results), errors.Join(errs...))
	}
	return nil
}

// applyDesktop connects to the settings daemon and applies p to the COSMIC theme.
func applyDesktop(ctx context.Context, p colour.Palette, isDark bool, logger hclog.Logger) (cosmic.Theme, error) {
	store, err := cosmic.DefaultStore()
	if err != nil {
		return cosmic.Theme{}, err
	}

	proxy, err := settingsd.NewManager(logger).Connect(ctx)
	if err != nil {
		return cosmic.Theme{}, err
	}
	defer func() {
		if err := proxy.Close(); err != nil {
			logger.Debug("failed to close session bus", "error", err)
		}
	}()

	return cosmic.NewApplier(store, proxy, logger.Named("cosmic")).Apply(ctx, p, isDark)
}

func applyTerminal(cacheDir string, p colour.Palette, logger hclog.Logger) (int, error) {
	return terminal.NewSequencer(cacheDir, logger.Named("terminal")).Apply(p)
}
