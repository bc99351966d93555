package terminal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

func testPalette() colour.Palette {
	p := colour.Palette{
		Background: colour.RGB{R: 0x11, G: 0x22, B: 0x33},
		Foreground: colour.RGB{R: 0xdd, G: 0xee, B: 0xff},
		Cursor:     colour.RGB{R: 0xff, G: 0x00, B: 0x80},
	}
	for i := range p.Colours {
		p.Colours[i] = colour.RGB{R: uint8(i), G: uint8(i * 2), B: uint8(i * 3)}
	}
	return p
}

func TestSequences(t *testing.T) {
	p := testPalette()
	seq := Sequences(p)

	for i, c := range p.Colours {
		want := fmt.Sprintf("\033]4;%d;%s\033\\", i, c.Hex())
		if !strings.Contains(seq, want) {
			t.Errorf("missing slot %d sequence %q", i, want)
		}
	}

	tests := []struct {
		name string
		want string
	}{
		{name: "foreground", want: "\033]10;#ddeeff\033\\"},
		{name: "background", want: "\033]11;#112233\033\\"},
		{name: "cursor", want: "\033]12;#ff0080\033\\"},
		{name: "colour 232", want: "\033]4;232;#112233\033\\"},
		{name: "border", want: "\033]708;#112233\033\\"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(seq, tt.want) {
				t.Errorf("Sequences() missing %q", tt.want)
			}
		})
	}

	if Sequences(p) != seq {
		t.Error("Sequences() not deterministic")
	}
}

func TestSequencerApply(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	ptyDir := t.TempDir()
	for _, name := range []string{"0", "1"} {
		if err := os.WriteFile(filepath.Join(ptyDir, name), nil, 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	// A directory matching the glob cannot be opened for writing.
	if err := os.Mkdir(filepath.Join(ptyDir, "2"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	s := NewSequencer(cacheDir, nil)
	s.PtyGlob = filepath.Join(ptyDir, "[0-9]*")

	written, err := s.Apply(testPalette())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if written != 2 {
		t.Errorf("Apply() wrote %d ptys, want 2", written)
	}

	want := Sequences(testPalette())
	for _, path := range []string{filepath.Join(cacheDir, SequencesFile), filepath.Join(ptyDir, "0"), filepath.Join(ptyDir, "1")} {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", path, err)
		}
		if string(got) != want {
			t.Errorf("%s does not contain the sequences", path)
		}
	}
}

func TestSequencerApplyCacheFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s := NewSequencer(file, nil)
	s.PtyGlob = filepath.Join(t.TempDir(), "*")

	if _, err := s.Apply(testPalette()); err == nil {
		t.Error("Apply() expected error when cache dir is a file")
	}
}
