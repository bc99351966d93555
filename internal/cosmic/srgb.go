package cosmic

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// Srgb is an sRGB colour with channels in [0, 1], as stored in COSMIC theme entries.
type Srgb struct {
	Red, Green, Blue float32
}

// Srgba is an Srgb with alpha.
type Srgba struct {
	Red, Green, Blue, Alpha float32
}

// FromRGB converts an 8-bit colour.
func FromRGB(c colour.RGB) Srgb {
	r, g, b := c.Float()
	return Srgb{Red: float32(r), Green: float32(g), Blue: float32(b)}
}

func fromColorful(c colorful.Color) Srgb {
	c = c.Clamped()
	return Srgb{Red: float32(c.R), Green: float32(c.G), Blue: float32(c.B)}
}

func (c Srgb) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.Red), G: float64(c.Green), B: float64(c.Blue)}
}

// WithAlpha returns c with the given alpha.
func (c Srgb) WithAlpha(a float32) Srgba {
	return Srgba{Red: c.Red, Green: c.Green, Blue: c.Blue, Alpha: a}
}

// Hex formats the colour as #rrggbb.
func (c Srgb) Hex() string {
	return c.toColorful().Clamped().Hex()
}

// Lightness returns CIE L* in [0, 1].
func (c Srgb) Lightness() float64 {
	l, _, _ := c.toColorful().Lab()
	return l
}

// Opaque drops the alpha channel.
func (c Srgba) Opaque() Srgb {
	return Srgb{Red: c.Red, Green: c.Green, Blue: c.Blue}
}

func (c Srgb) ron() string {
	return formatStruct([][2]string{
		{"red", formatFloat(c.Red)},
		{"green", formatFloat(c.Green)},
		{"blue", formatFloat(c.Blue)},
	})
}

func (c Srgba) ron() string {
	return formatStruct([][2]string{
		{"red", formatFloat(c.Red)},
		{"green", formatFloat(c.Green)},
		{"blue", formatFloat(c.Blue)},
		{"alpha", formatFloat(c.Alpha)},
	})
}

func decodeSrgb(v any) (Srgb, error) {
	s, err := asStruct(v, "red", "green", "blue")
	if err != nil {
		return Srgb{}, err
	}
	var ch [3]float32
	for i, name := range []string{"red", "green", "blue"} {
		f, err := asFloat32(s.Fields[name])
		if err != nil {
			return Srgb{}, fmt.Errorf("%s: %w", name, err)
		}
		ch[i] = f
	}
	return Srgb{Red: ch[0], Green: ch[1], Blue: ch[2]}, nil
}

func decodeSrgba(v any) (Srgba, error) {
	rgb, err := decodeSrgb(v)
	if err != nil {
		return Srgba{}, err
	}
	s, _ := asStruct(v)
	alpha := float32(1)
	if a, ok := s.Fields["alpha"]; ok {
		f, err := asFloat32(a)
		if err != nil {
			return Srgba{}, fmt.Errorf("alpha: %w", err)
		}
		alpha = f
	}
	return rgb.WithAlpha(alpha), nil
}

func optionRON[T interface{ ron() string }](v *T) string {
	if v == nil {
		return "None"
	}
	return "Some(" + (*v).ron() + ")"
}

func decodeOption[T any](v any, decode func(any) (T, error)) (*T, error) {
	o, err := asOption(v)
	if err != nil {
		return nil, err
	}
	if !o.Valid {
		return nil, nil
	}
	out, err := decode(o.Value)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
