// Package colour provides the palette model shared by extraction, caching and theming.
package colour

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a colour in 8-bit RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// RGBA implements color.Color so an RGB can be passed to image APIs directly.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}.RGBA()
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255].
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// ParseHex parses "#rrggbb" or "rrggbb" into an RGB value.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q: expected 6 digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Float returns the channels scaled to [0, 1].
func (rgb RGB) Float() (r, g, b float64) {
	return float64(rgb.R) / 255.0, float64(rgb.G) / 255.0, float64(rgb.B) / 255.0
}

// Colorful converts to a go-colorful colour for perceptual operations.
func (rgb RGB) Colorful() colorful.Color {
	r, g, b := rgb.Float()
	return colorful.Color{R: r, G: g, B: b}
}

// FromColorful converts a go-colorful colour back to RGB, clamping out-of-gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Lightness returns CIE L* scaled to [0, 1].
func (rgb RGB) Lightness() float64 {
	l, _, _ := rgb.Colorful().Lab()
	return l
}

// Darken reduces CIE L* by the given factor, keeping a* and b*.
// A factor of 0.3 maps L* to 0.7·L*.
func (rgb RGB) Darken(factor float64) RGB {
	l, a, b := rgb.Colorful().Lab()
	l = clamp01(l * (1 - factor))
	return FromColorful(colorful.Lab(l, a, b))
}

// Lighten moves CIE L* towards white by the given factor, keeping a* and b*.
func (rgb RGB) Lighten(factor float64) RGB {
	l, a, b := rgb.Colorful().Lab()
	l = clamp01(l + (1-l)*factor)
	return FromColorful(colorful.Lab(l, a, b))
}

// Distance returns the CIE76 colour difference on the conventional 0-100 scale.
func (rgb RGB) Distance(other RGB) float64 {
	return rgb.Colorful().DistanceLab(other.Colorful()) * 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
