package cosmic

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ThemeBuilder holds the user-tunable inputs from which a Theme is built.
// Nil colours mean "use the palette default".
type ThemeBuilder struct {
	Dark                 bool
	BgColor              *Srgba
	PrimaryContainerBg   *Srgba
	SecondaryContainerBg *Srgba
	Accent               *Srgb
	TextTint             *Srgb
	NeutralTint          *Srgb
	WindowHint           *Srgb
	Gaps                 [2]uint32
	ActiveHint           uint32
	IsFrosted            bool

	// palette is the stored palette entry when it carries a payload, written
	// back verbatim while its variant still matches Dark.
	palette     string
	paletteDark bool
}

// DefaultBuilder returns the stock dark or light builder.
func DefaultBuilder(dark bool) ThemeBuilder {
	return ThemeBuilder{
		Dark:       dark,
		Gaps:       [2]uint32{0, 8},
		ActiveHint: 3,
	}
}

// Container is a surface colour and the colour drawn on it.
type Container struct {
	Base Srgba
	On   Srgba
}

// Theme is a built theme as consumed by COSMIC components.
type Theme struct {
	Name       string
	IsDark     bool
	IsFrosted  bool
	Background Container
	Primary    Container
	Secondary  Container
	Accent     Srgba
	WindowHint Srgba
	Gaps       [2]uint32
	ActiveHint uint32
}

type paletteDefaults struct {
	bg, accent, neutral, text Srgb
}

var (
	darkDefaults = paletteDefaults{
		bg:      Srgb{Red: 0.106, Green: 0.106, Blue: 0.106},
		accent:  Srgb{Red: 0.388, Green: 0.816, Blue: 0.875},
		neutral: Srgb{Red: 0.5, Green: 0.5, Blue: 0.5},
		text:    Srgb{Red: 0.93, Green: 0.93, Blue: 0.93},
	}
	lightDefaults = paletteDefaults{
		bg:      Srgb{Red: 0.933, Green: 0.933, Blue: 0.933},
		accent:  Srgb{Red: 0, Green: 0.322, Blue: 0.353},
		neutral: Srgb{Red: 0.5, Green: 0.5, Blue: 0.5},
		text:    Srgb{Red: 0.1, Green: 0.1, Blue: 0.1},
	}
)

// Container derivation parameters.
const (
	containerStep    = 0.05
	neutralMix       = 0.1
	textTintStrength = 0.15
)

// Apply returns a copy of b with the palette-derived fields set.
func (b ThemeBuilder) Apply(f ThemeFields) ThemeBuilder {
	accent, text, neutral := f.Accent, f.TextTint, f.NeutralTint
	bg := f.Background.WithAlpha(1)
	b.Accent = &accent
	b.BgColor = &bg
	b.TextTint = &text
	b.NeutralTint = &neutral
	return b
}

// Build derives the finished theme. When a background colour is set, darkness
// follows its lightness rather than the builder's palette flag.
func (b ThemeBuilder) Build() Theme {
	isDark := b.Dark
	bg := defaultsFor(b.Dark).bg.WithAlpha(1)
	if b.BgColor != nil {
		bg = *b.BgColor
		isDark = bg.Opaque().Lightness() < 0.5
	}
	def := defaultsFor(isDark)

	neutral := def.neutral
	if b.NeutralTint != nil {
		neutral = *b.NeutralTint
	}
	text := def.text
	if b.TextTint != nil {
		text = fromColorful(text.toColorful().BlendLab(b.TextTint.toColorful(), textTintStrength))
	}
	accent := def.accent
	if b.Accent != nil {
		accent = *b.Accent
	}
	windowHint := accent
	if b.WindowHint != nil {
		windowHint = *b.WindowHint
	}

	step := containerStep
	if !isDark {
		step = -step
	}
	primary := b.PrimaryContainerBg
	if primary == nil {
		c := deriveContainer(bg.Opaque(), neutral, step).WithAlpha(bg.Alpha)
		primary = &c
	}
	secondary := b.SecondaryContainerBg
	if secondary == nil {
		c := deriveContainer(bg.Opaque(), neutral, 2*step).WithAlpha(bg.Alpha)
		secondary = &c
	}

	name := "cosmic-light"
	if isDark {
		name = "cosmic-dark"
	}

	on := text.WithAlpha(1)
	return Theme{
		Name:       name,
		IsDark:     isDark,
		IsFrosted:  b.IsFrosted,
		Background: Container{Base: bg, On: on},
		Primary:    Container{Base: *primary, On: on},
		Secondary:  Container{Base: *secondary, On: on},
		Accent:     accent.WithAlpha(1),
		WindowHint: windowHint.WithAlpha(1),
		Gaps:       b.Gaps,
		ActiveHint: b.ActiveHint,
	}
}

func defaultsFor(dark bool) paletteDefaults {
	if dark {
		return darkDefaults
	}
	return lightDefaults
}

// deriveContainer shifts base by step in CIE L* and tints it towards neutral.
func deriveContainer(base, neutral Srgb, step float64) Srgb {
	l, a, bb := base.toColorful().Lab()
	shifted := colorful.Lab(min(max(l+step, 0), 1), a, bb)
	return fromColorful(shifted.BlendLab(neutral.toColorful(), neutralMix))
}

// entryField maps one config key to a field of T.
type entryField[T any] struct {
	key    string
	encode func(T) string
	decode func(*T, any) error
}

var builderFields = []entryField[ThemeBuilder]{
	{
		key: "palette",
		encode: func(b ThemeBuilder) string {
			if b.palette != "" && b.paletteDark == b.Dark {
				return b.palette
			}
			if b.Dark {
				return "Dark"
			}
			return "Light"
		},
		decode: func(b *ThemeBuilder, v any) error {
			var name, raw string
			switch p := v.(type) {
			case ronIdent:
				name = string(p)
			case ronVariant:
				name, raw = p.Name, p.Raw
			default:
				return fmt.Errorf("expected palette variant, got %T", v)
			}
			var dark bool
			switch name {
			case "Dark", "HighContrastDark":
				dark = true
			case "Light", "HighContrastLight":
				dark = false
			default:
				return fmt.Errorf("unknown palette %q", name)
			}
			b.Dark, b.palette, b.paletteDark = dark, raw, dark
			return nil
		},
	},
	optionalField("bg_color", func(b *ThemeBuilder) **Srgba { return &b.BgColor }, decodeSrgba),
	optionalField("primary_container_bg", func(b *ThemeBuilder) **Srgba { return &b.PrimaryContainerBg }, decodeSrgba),
	optionalField("secondary_container_bg", func(b *ThemeBuilder) **Srgba { return &b.SecondaryContainerBg }, decodeSrgba),
	optionalField("accent", func(b *ThemeBuilder) **Srgb { return &b.Accent }, decodeSrgb),
	optionalField("text_tint", func(b *ThemeBuilder) **Srgb { return &b.TextTint }, decodeSrgb),
	optionalField("neutral_tint", func(b *ThemeBuilder) **Srgb { return &b.NeutralTint }, decodeSrgb),
	optionalField("window_hint", func(b *ThemeBuilder) **Srgb { return &b.WindowHint }, decodeSrgb),
	{
		key:    "gaps",
		encode: func(b ThemeBuilder) string { return gapsRON(b.Gaps) },
		decode: func(b *ThemeBuilder, v any) (err error) {
			b.Gaps, err = decodeGaps(v)
			return err
		},
	},
	{
		key:    "active_hint",
		encode: func(b ThemeBuilder) string { return fmt.Sprint(b.ActiveHint) },
		decode: func(b *ThemeBuilder, v any) (err error) {
			b.ActiveHint, err = asUint(v)
			return err
		},
	},
	{
		key:    "is_frosted",
		encode: func(b ThemeBuilder) string { return fmt.Sprint(b.IsFrosted) },
		decode: func(b *ThemeBuilder, v any) (err error) {
			b.IsFrosted, err = asBool(v)
			return err
		},
	},
}

func optionalField[C interface{ ron() string }](key string, ref func(*ThemeBuilder) **C, decode func(any) (C, error)) entryField[ThemeBuilder] {
	return entryField[ThemeBuilder]{
		key: key,
		encode: func(b ThemeBuilder) string {
			return optionRON(*ref(&b))
		},
		decode: func(b *ThemeBuilder, v any) error {
			c, err := decodeOption(v, decode)
			if err != nil {
				return err
			}
			*ref(b) = c
			return nil
		},
	}
}

func gapsRON(g [2]uint32) string {
	return fmt.Sprintf("(%d, %d)", g[0], g[1])
}

func decodeGaps(v any) ([2]uint32, error) {
	t, err := asTuple(v, 2)
	if err != nil {
		return [2]uint32{}, err
	}
	var g [2]uint32
	for i := range g {
		if g[i], err = asUint(t[i]); err != nil {
			return [2]uint32{}, err
		}
	}
	return g, nil
}

func containerRON(c Container) string {
	return formatStruct([][2]string{{"base", c.Base.ron()}, {"on", c.On.ron()}})
}

func decodeContainer(v any) (Container, error) {
	s, err := asStruct(v, "base", "on")
	if err != nil {
		return Container{}, err
	}
	base, err := decodeSrgba(s.Fields["base"])
	if err != nil {
		return Container{}, fmt.Errorf("base: %w", err)
	}
	on, err := decodeSrgba(s.Fields["on"])
	if err != nil {
		return Container{}, fmt.Errorf("on: %w", err)
	}
	return Container{Base: base, On: on}, nil
}

func srgbaField(key string, ref func(*Theme) *Srgba) entryField[Theme] {
	return entryField[Theme]{
		key:    key,
		encode: func(t Theme) string { return ref(&t).ron() },
		decode: func(t *Theme, v any) (err error) {
			*ref(t), err = decodeSrgba(v)
			return err
		},
	}
}

func containerField(key string, ref func(*Theme) *Container) entryField[Theme] {
	return entryField[Theme]{
		key:    key,
		encode: func(t Theme) string { return containerRON(*ref(&t)) },
		decode: func(t *Theme, v any) (err error) {
			*ref(t), err = decodeContainer(v)
			return err
		},
	}
}

var themeFields = []entryField[Theme]{
	{
		key:    "name",
		encode: func(t Theme) string { return fmt.Sprintf("%q", t.Name) },
		decode: func(t *Theme, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			t.Name = s
			return nil
		},
	},
	{
		key:    "is_dark",
		encode: func(t Theme) string { return fmt.Sprint(t.IsDark) },
		decode: func(t *Theme, v any) (err error) {
			t.IsDark, err = asBool(v)
			return err
		},
	},
	{
		key:    "is_frosted",
		encode: func(t Theme) string { return fmt.Sprint(t.IsFrosted) },
		decode: func(t *Theme, v any) (err error) {
			t.IsFrosted, err = asBool(v)
			return err
		},
	},
	containerField("background", func(t *Theme) *Container { return &t.Background }),
	containerField("primary", func(t *Theme) *Container { return &t.Primary }),
	containerField("secondary", func(t *Theme) *Container { return &t.Secondary }),
	srgbaField("accent", func(t *Theme) *Srgba { return &t.Accent }),
	srgbaField("window_hint", func(t *Theme) *Srgba { return &t.WindowHint }),
	{
		key:    "gaps",
		encode: func(t Theme) string { return gapsRON(t.Gaps) },
		decode: func(t *Theme, v any) (err error) {
			t.Gaps, err = decodeGaps(v)
			return err
		},
	},
	{
		key:    "active_hint",
		encode: func(t Theme) string { return fmt.Sprint(t.ActiveHint) },
		decode: func(t *Theme, v any) (err error) {
			t.ActiveHint, err = asUint(v)
			return err
		},
	},
}
