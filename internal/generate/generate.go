// Package generate turns a wallpaper into a palette, consulting the palette
// cache before running the expensive extraction.
package generate

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/cache"
	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/extract"
)

// Result is the outcome of a successful generation.
type Result struct {
	Palette     colour.Palette
	Fingerprint cache.Fingerprint
	// FromCache is true when extraction was skipped.
	FromCache bool
}

// ExtractError wraps a failure of the extraction backend. There is no fallback
// palette source, so it is fatal to generation.
type ExtractError struct {
	Wallpaper string
	Backend   string
	Err       error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract colours from %s using %s: %v", e.Wallpaper, e.Backend, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Generator combines a palette cache with an extractor.
type Generator struct {
	Cache     *cache.Store
	Extractor extract.Extractor
	Logger    hclog.Logger
}

// New creates a Generator. A nil logger discards output.
func New(store *cache.Store, extractor extract.Extractor, logger hclog.Logger) *Generator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{Cache: store, Extractor: extractor, Logger: logger}
}

// Generate returns the palette for wallpaper under cfg.
//
// Unless overwrite is set, a present and readable cache entry is returned
// without running the extractor. Otherwise the extractor runs and the result is
// stored; a failed store is logged and does not fail the call.
func (g *Generator) Generate(ctx context.Context, wallpaper string, cfg extract.Config, overwrite bool) (Result, error) {
	fp, err := cache.ComputeFingerprint(wallpaper, cfg)
	if err != nil {
		return Result{}, err
	}
	logger := g.Logger.With("fingerprint", string(fp))

	if !overwrite && g.Cache.IsPresent(fp) {
		if p, ok := g.Cache.Lookup(fp); ok {
			logger.Debug("using cached palette", "path", g.Cache.Path(fp))
			return Result{Palette: p, Fingerprint: fp, FromCache: true}, nil
		}
		logger.Warn("cached palette unusable, regenerating")
	}

	logger.Info("extracting palette", "wallpaper", wallpaper, "backend", cfg.Backend, "overwrite", overwrite)
	p, err := g.Extractor.Extract(ctx, wallpaper, cfg)
	if err != nil {
		return Result{}, &ExtractError{Wallpaper: wallpaper, Backend: cfg.Backend, Err: err}
	}

	if err := g.Cache.Store(fp, p); err != nil {
		logger.Error("failed to cache palette", "error", err)
	}

	return Result{Palette: p, Fingerprint: fp}, nil
}
