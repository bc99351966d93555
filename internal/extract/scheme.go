package extract

import (
	"errors"
	"sort"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

const accentCount = 6

// Lightness bounds that keep accents readable against the background.
const (
	minDarkAccentL  = 0.4
	maxLightAccentL = 0.6
)

var errNoColours = errors.New("no colours extracted")

// buildScheme lays extracted colours out on the 16 terminal slots.
// Slot 0 and 8 are background shades, 1-6 and 9-14 accents, 7 and 15 foreground.
func buildScheme(ws []weighted, mode Mode) (colour.Palette, error) {
	if len(ws) == 0 {
		return colour.Palette{}, errNoColours
	}

	darkest, lightest := ws[0].c, ws[0].c
	for _, w := range ws[1:] {
		if w.c.Lightness() < darkest.Lightness() {
			darkest = w.c
		}
		if w.c.Lightness() > lightest.Lightness() {
			lightest = w.c
		}
	}

	accents := make([]colour.RGB, accentCount)
	for i := range accents {
		base := ws[i%len(ws)].c
		// Reused colours get a lighter variant per pass.
		if pass := i / len(ws); pass > 0 {
			base = base.Lighten(0.1 * float64(pass))
		}
		accents[i] = base
	}

	var p colour.Palette
	switch mode {
	case ModeLight:
		p.Background = lightest.Lighten(0.85)
		p.Foreground = darkest.Darken(0.75)
		for i, a := range accents {
			if a.Lightness() > maxLightAccentL {
				accents[i] = a.Darken(0.4)
			}
		}
	default:
		p.Background = darkest.Darken(0.75)
		p.Foreground = lightest.Lighten(0.75)
		for i, a := range accents {
			if a.Lightness() < minDarkAccentL {
				accents[i] = a.Lighten(0.4)
			}
		}
	}

	sort.SliceStable(accents, func(i, j int) bool {
		return accents[i].Lightness() < accents[j].Lightness()
	})

	p.Cursor = p.Foreground
	p.Colours[0] = p.Background
	p.Colours[7] = p.Foreground
	p.Colours[15] = p.Foreground
	for i, a := range accents {
		p.Colours[1+i] = a
	}
	if mode == ModeLight {
		p.Colours[8] = p.Background.Darken(0.25)
		for i, a := range accents {
			p.Colours[9+i] = a.Darken(0.15)
		}
	} else {
		p.Colours[8] = p.Background.Lighten(0.25)
		for i, a := range accents {
			p.Colours[9+i] = a.Lighten(0.15)
		}
	}

	return p, nil
}
