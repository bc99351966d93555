package colour

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PaletteFormatVersion is bumped whenever the serialised palette layout changes.
// Cached palettes with a different version are treated as unreadable.
const PaletteFormatVersion = 1

// SlotCount is the number of terminal colour slots in a palette.
const SlotCount = 16

// Palette is the fixed set of named colours derived from a wallpaper.
// Slot numbering follows the terminal convention, so Colours[1] is "colour 1" (red).
type Palette struct {
	Background RGB
	Foreground RGB
	Cursor     RGB
	Colours    [SlotCount]RGB
}

// Colour returns the colour in the given terminal slot.
// Returns an error if the slot is out of range.
func (p Palette) Colour(slot int) (RGB, error) {
	if slot < 0 || slot >= SlotCount {
		return RGB{}, fmt.Errorf("slot out of range: %d (palette has %d slots)", slot, SlotCount)
	}
	return p.Colours[slot], nil
}

// IsDark reports whether the palette background is dark.
func (p Palette) IsDark() bool {
	return p.Background.Lightness() < 0.5
}

// paletteJSON is the on-disk representation of a Palette.
type paletteJSON struct {
	Version    int               `json:"version"`
	Background string            `json:"background"`
	Foreground string            `json:"foreground"`
	Cursor     string            `json:"cursor"`
	Colours    [SlotCount]string `json:"colours"`
}

// MarshalJSON encodes the palette with lowercase hex strings.
func (p Palette) MarshalJSON() ([]byte, error) {
	out := paletteJSON{
		Version:    PaletteFormatVersion,
		Background: p.Background.Hex(),
		Foreground: p.Foreground.Hex(),
		Cursor:     p.Cursor.Hex(),
	}
	for i, c := range p.Colours {
		out.Colours[i] = c.Hex()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a palette written by MarshalJSON.
func (p *Palette) UnmarshalJSON(data []byte) error {
	var in paletteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Version != PaletteFormatVersion {
		return fmt.Errorf("unsupported palette version %d (want %d)", in.Version, PaletteFormatVersion)
	}

	var out Palette
	var err error
	if out.Background, err = ParseHex(in.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if out.Foreground, err = ParseHex(in.Foreground); err != nil {
		return fmt.Errorf("foreground: %w", err)
	}
	if out.Cursor, err = ParseHex(in.Cursor); err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	for i, hex := range in.Colours {
		if out.Colours[i], err = ParseHex(hex); err != nil {
			return fmt.Errorf("colour %d: %w", i, err)
		}
	}

	*p = out
	return nil
}

// String returns a human-readable listing of the palette.
func (p Palette) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %s\n", "background", p.Background.Hex())
	fmt.Fprintf(&b, "%-10s %s\n", "foreground", p.Foreground.Hex())
	fmt.Fprintf(&b, "%-10s %s\n", "cursor", p.Cursor.Hex())
	for i, c := range p.Colours {
		fmt.Fprintf(&b, "colour%-4d %s\n", i, c.Hex())
	}
	return b.String()
}

// Print writes the palette to w. When swatches is true, each entry is preceded by a
// coloured block and the sixteen slots are shown as two rows of eight.
func (p Palette) Print(w io.Writer, swatches bool) error {
	if !swatches {
		_, err := io.WriteString(w, p.String())
		return err
	}

	r := lipgloss.NewRenderer(w)
	block := func(c RGB) string {
		return r.NewStyle().Background(lipgloss.Color(c.Hex())).Render("    ")
	}

	var b strings.Builder
	for _, named := range []struct {
		label string
		c     RGB
	}{
		{"background", p.Background},
		{"foreground", p.Foreground},
		{"cursor", p.Cursor},
	} {
		fmt.Fprintf(&b, "%s %-10s %s\n", block(named.c), named.label, named.c.Hex())
	}

	for row := 0; row < 2; row++ {
		cells := make([]string, 0, 8)
		for i := row * 8; i < row*8+8; i++ {
			cells = append(cells, block(p.Colours[i]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
