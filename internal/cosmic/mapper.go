package cosmic

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// Palette slots feeding the theme.
const (
	AccentSlot     = 5
	BackgroundSlot = 1
	TextTintSlot   = 6

	// BackgroundDarken is the fraction by which CIE L* of the background slot is reduced.
	BackgroundDarken = 0.3
)

// ThemeFields are the theme colours derived from a palette.
type ThemeFields struct {
	Accent      Srgb
	Background  Srgb
	TextTint    Srgb
	NeutralTint Srgb
}

// MapFields derives the theme colours from p. It is pure: the same palette
// always yields bit-identical fields.
func MapFields(p colour.Palette) ThemeFields {
	return ThemeFields{
		Accent:      FromRGB(p.Colours[AccentSlot]),
		Background:  darken(FromRGB(p.Colours[BackgroundSlot]), BackgroundDarken),
		TextTint:    FromRGB(p.Colours[TextTintSlot]),
		NeutralTint: FromRGB(p.Background),
	}
}

// darken scales CIE L* by (1 - factor), keeping a* and b*.
func darken(c Srgb, factor float64) Srgb {
	l, a, b := c.toColorful().Lab()
	return fromColorful(colorful.Lab(l*(1-factor), a, b))
}
