// Package cosmic maps palettes onto COSMIC desktop themes and persists them.
package cosmic

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// Notifier tells the settings daemon that a config entry changed.
// *settingsd.Proxy implements it.
type Notifier interface {
	WatchConfig(ctx context.Context, id string) error
}

// ApplyError reports a failed write of a theme entry.
type ApplyError struct {
	ID  string
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to write theme entry %s: %v", e.ID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Applier writes palette-derived themes to the config store and notifies the
// settings daemon of each written entry.
type Applier struct {
	Store    *Store
	Notifier Notifier
	Logger   hclog.Logger
}

// NewApplier creates an Applier. A nil logger discards output; a nil notifier
// skips daemon notification.
func NewApplier(store *Store, notifier Notifier, logger hclog.Logger) *Applier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Applier{Store: store, Notifier: notifier, Logger: logger}
}

// Apply patches the dark or light builder entry with the colours of p, builds
// the theme and writes the builder followed by the built theme. The theme is
// written to the entry matching the built theme's darkness, which can differ
// from isDark.
func (a *Applier) Apply(ctx context.Context, p colour.Palette, isDark bool) (Theme, error) {
	builderID := BuilderID(isDark)

	builder, errs := a.Store.ReadBuilder(builderID, DefaultBuilder(isDark))
	for _, err := range errs {
		a.Logger.Error("failed to read theme builder, using defaults", "error", err)
	}

	builder = builder.Apply(MapFields(p))
	theme := builder.Build()
	themeID := ThemeID(theme.IsDark)
	if theme.IsDark != isDark {
		a.Logger.Info("built theme darkness differs from request", "requested_dark", isDark, "built_dark", theme.IsDark)
	}

	if err := a.write(ctx, builderID, func() error { return a.Store.WriteBuilder(builderID, builder) }); err != nil {
		return Theme{}, err
	}
	if err := a.write(ctx, themeID, func() error { return a.Store.WriteTheme(themeID, theme) }); err != nil {
		return Theme{}, err
	}

	a.Logger.Info("applied theme", "entry", themeID, "accent", theme.Accent.Opaque().Hex())
	return theme, nil
}

func (a *Applier) write(ctx context.Context, id string, write func() error) error {
	if err := write(); err != nil {
		return &ApplyError{ID: id, Err: err}
	}
	if a.Notifier != nil {
		if err := a.Notifier.WatchConfig(ctx, id); err != nil {
			return &ApplyError{ID: id, Err: err}
		}
	}
	a.Logger.Debug("wrote theme entry", "id", id)
	return nil
}
