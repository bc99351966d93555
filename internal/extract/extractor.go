package extract

import (
	"context"
	"fmt"
	stdimage "image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/image"
)

// Downscale targets for the built-in backends.
const (
	resizedMaxSide         = 512
	dominantMaxSide        = 256
	fastestDominantMaxSide = 64
)

// Extractor produces a palette from a wallpaper.
type Extractor interface {
	Extract(ctx context.Context, wallpaper string, cfg Config) (colour.Palette, error)
}

// ImageExtractor is the default Extractor. It decodes the wallpaper, runs the
// configured backend, merges near-duplicate colours and builds the scheme.
type ImageExtractor struct {
	loader image.Loader
	logger hclog.Logger
}

// NewImageExtractor creates an ImageExtractor. A nil logger discards output.
func NewImageExtractor(logger hclog.Logger) *ImageExtractor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ImageExtractor{
		loader: image.NewFileLoader(),
		logger: logger,
	}
}

// Extract implements Extractor.
func (e *ImageExtractor) Extract(ctx context.Context, wallpaper string, cfg Config) (colour.Palette, error) {
	if err := cfg.Validate(); err != nil {
		return colour.Palette{}, err
	}

	var (
		ws  []weighted
		err error
	)
	if path, ok := cfg.PluginPath(); ok {
		ext := &externalBackend{path: path, logger: e.logger}
		ws, err = ext.extract(ctx, wallpaper, cfg)
	} else {
		ws, err = e.extractBuiltin(wallpaper, cfg)
	}
	if err != nil {
		return colour.Palette{}, err
	}
	if err := ctx.Err(); err != nil {
		return colour.Palette{}, err
	}

	merged := mergeSimilar(ws, float64(cfg.Threshold))
	e.logger.Debug("extracted colours", "backend", cfg.Backend, "raw", len(ws), "merged", len(merged))

	p, err := buildScheme(merged, cfg.Mode)
	if err != nil {
		return colour.Palette{}, fmt.Errorf("%s backend: %w", cfg.Backend, err)
	}
	return p, nil
}

func (e *ImageExtractor) extractBuiltin(wallpaper string, cfg Config) ([]weighted, error) {
	img, err := e.loader.Load(wallpaper)
	if err != nil {
		return nil, err
	}
	return runBuiltin(img, cfg), nil
}

// runBuiltin dispatches to one of the compiled-in backends.
func runBuiltin(img stdimage.Image, cfg Config) []weighted {
	switch cfg.Backend {
	case BackendKMeans:
		return newKMeansBackend().extract(img, cfg.Colours, contentSeed(img))
	case BackendDominant:
		return dominantBackend{}.extract(image.Downscale(img, dominantMaxSide), cfg.Colours)
	case BackendFastestDominant:
		return dominantBackend{}.extract(image.Downscale(img, fastestDominantMaxSide), cfg.Colours)
	default:
		small := image.Downscale(img, resizedMaxSide)
		return newKMeansBackend().extract(small, cfg.Colours, contentSeed(small))
	}
}
