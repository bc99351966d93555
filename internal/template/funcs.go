// Package template renders user templates with the generated palette.
package template

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// Funcs returns the functions available to user templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// Slot access.
		"colour": colourFunc,
		"color":  colourFunc,

		// Format conversion.
		"hex":        hexFunc,
		"hexNoHash":  hexNoHashFunc,
		"rgb":        rgbFunc,
		"rgba":       rgbaFunc,
		"rgbDecimal": rgbDecimalFunc,
		"strip":      stripFunc,

		// Perceptual adjustments.
		"darken":  darkenFunc,
		"lighten": lightenFunc,

		// String manipulation (custom wrappers for pipe-friendly argument order).
		"trimPrefix": trimPrefixFunc,
		"replace":    replaceFunc,
		"toLower":    strings.ToLower,
		"toUpper":    strings.ToUpper,
	}
}

// colourFunc returns the colour in a terminal slot.
func colourFunc(data Data, slot int) (colour.RGB, error) {
	return data.Palette.Colour(slot)
}

// hexFunc returns color in #rrggbb format.
func hexFunc(c colour.RGB) string {
	return c.Hex()
}

// hexNoHashFunc returns color in rrggbb format (no # prefix).
func hexNoHashFunc(c colour.RGB) string {
	return strings.TrimPrefix(c.Hex(), "#")
}

// rgbFunc returns color in CSS rgb(r,g,b) format.
func rgbFunc(c colour.RGB) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// rgbaFunc returns color in CSS rgba(r,g,b,a) format (pipe-friendly argument order):
//
//	{{ .Background | rgba 0.8 }}
func rgbaFunc(alpha float64, c colour.RGB) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(alpha, 'f', -1, 64))
}

// rgbDecimalFunc returns color in "r,g,b" decimal format.
func rgbDecimalFunc(c colour.RGB) string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// stripFunc removes the leading # from a hex string.
func stripFunc(s string) string {
	return strings.TrimPrefix(s, "#")
}

// darkenFunc reduces lightness by factor (pipe-friendly argument order):
//
//	{{ .Background | darken 0.2 | hex }}
func darkenFunc(factor float64, c colour.RGB) colour.RGB {
	return c.Darken(factor)
}

// lightenFunc moves lightness towards white by factor.
func lightenFunc(factor float64, c colour.RGB) colour.RGB {
	return c.Lighten(factor)
}

// trimPrefixFunc removes a prefix from a string (pipe-friendly argument order).
func trimPrefixFunc(prefix, s string) string {
	return strings.TrimPrefix(s, prefix)
}

// replaceFunc replaces all occurrences of old with new (pipe-friendly argument order).
func replaceFunc(old, new, s string) string {
	return strings.ReplaceAll(s, old, new)
}
