// Package terminal recolours running terminals with OSC escape sequences.
package terminal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

const (
	oscPrefix = "\033]"
	oscSuffix = "\033\\"

	// SequencesFile is the name of the cached sequences file under the cache root.
	// Shells can replay it on startup: cat ~/.cache/tinct-cosmic/sequences.
	SequencesFile = "sequences"

	// DefaultPtyGlob matches the pseudo-terminals of open sessions.
	DefaultPtyGlob = "/dev/pts/[0-9]*"
)

// OSC codes for special colours.
const (
	oscForeground      = 10
	oscBackground      = 11
	oscCursor          = 12
	oscMouseForeground = 13
	oscHighlightBg     = 17
	oscHighlightFg     = 19
	oscBorder          = 708
)

func setColour(index int, c colour.RGB) string {
	return fmt.Sprintf("%s4;%d;%s%s", oscPrefix, index, c.Hex(), oscSuffix)
}

func setSpecial(code int, c colour.RGB) string {
	return fmt.Sprintf("%s%d;%s%s", oscPrefix, code, c.Hex(), oscSuffix)
}

// Sequences returns the escape sequences that recolour a terminal to p.
func Sequences(p colour.Palette) string {
	var b strings.Builder
	for i, c := range p.Colours {
		b.WriteString(setColour(i, c))
	}
	b.WriteString(setSpecial(oscForeground, p.Foreground))
	b.WriteString(setSpecial(oscBackground, p.Background))
	b.WriteString(setSpecial(oscCursor, p.Cursor))
	b.WriteString(setSpecial(oscMouseForeground, p.Foreground))
	b.WriteString(setSpecial(oscHighlightBg, p.Foreground))
	b.WriteString(setSpecial(oscHighlightFg, p.Background))
	b.WriteString(setColour(232, p.Background))
	b.WriteString(setColour(256, p.Foreground))
	b.WriteString(setColour(257, p.Background))
	b.WriteString(setSpecial(oscBorder, p.Background))
	return b.String()
}

// Sequencer writes palette sequences to open terminals and to a cache file.
type Sequencer struct {
	CacheDir string
	PtyGlob  string
	Logger   hclog.Logger
}

// NewSequencer creates a Sequencer for the ptys of the current machine.
func NewSequencer(cacheDir string, logger hclog.Logger) *Sequencer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sequencer{CacheDir: cacheDir, PtyGlob: DefaultPtyGlob, Logger: logger}
}

// Apply writes the sequences for p to the cache file and to every writable
// pty. Ptys that cannot be written are skipped. It returns the number of
// ptys written.
func (s *Sequencer) Apply(p colour.Palette) (int, error) {
	seq := []byte(Sequences(p))

	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return 0, fmt.Errorf("failed to create cache directory: %w", err)
	}
	cachePath := filepath.Join(s.CacheDir, SequencesFile)
	if err := os.WriteFile(cachePath, seq, 0o644); err != nil { // #nosec G306 - Sequences file is replayed by shells
		return 0, fmt.Errorf("failed to write sequences file: %w", err)
	}

	ptys, err := filepath.Glob(s.PtyGlob)
	if err != nil {
		return 0, fmt.Errorf("invalid pty pattern %q: %w", s.PtyGlob, err)
	}

	written := 0
	for _, pty := range ptys {
		if err := writePty(pty, seq); err != nil {
			s.Logger.Debug("skipping terminal", "pty", pty, "error", err)
			continue
		}
		written++
	}

	s.Logger.Debug("sent sequences to terminals", "count", written, "cache", cachePath)
	return written, nil
}

func writePty(path string, seq []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0) // #nosec G304 - Paths come from the pty glob
	if err != nil {
		return err
	}
	if _, err := f.Write(seq); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
