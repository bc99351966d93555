// Package cache stores extracted palettes keyed by a fingerprint of the
// wallpaper contents and the extraction settings.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// formatTag is mixed into every fingerprint. Bump it when the entry format or
// the extraction output changes incompatibly so old entries stop matching.
const formatTag = "tinct-cosmic/palette/v1"

const paletteDir = "palettes"

// Fingerprint identifies a (wallpaper, settings) pair.
type Fingerprint string

// DefaultDir returns the default cache root.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir not available.
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "tinct-cosmic"), nil
	}
	return filepath.Join(cacheDir, "tinct-cosmic"), nil
}

// Settings is the extraction configuration mixed into a fingerprint.
// extract.Config implements it.
type Settings interface {
	Canonical() ([]byte, error)
}

// ComputeFingerprint hashes the wallpaper file contents together with the
// canonical encoding of cfg. The same file under another name yields the same
// fingerprint.
func ComputeFingerprint(wallpaperPath string, cfg Settings) (Fingerprint, error) {
	settings, err := cfg.Canonical()
	if err != nil {
		return "", fmt.Errorf("failed to encode extraction settings: %w", err)
	}

	f, err := os.Open(wallpaperPath) // #nosec G304 - User-specified wallpaper, intended to be read
	if err != nil {
		return "", fmt.Errorf("failed to open wallpaper: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	h.Write([]byte(formatTag))
	h.Write([]byte{0})
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read wallpaper: %w", err)
	}
	h.Write([]byte{0})
	h.Write(settings)

	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// WriteError is returned when a palette could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write cache entry %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is a directory of palette entries, one JSON file per fingerprint.
// Writers replace entries atomically; concurrent writers of the same
// fingerprint race and the last rename wins.
type Store struct {
	root   string
	logger hclog.Logger
}

// NewStore creates a Store rooted at root. Nothing is created until the first write.
func NewStore(root string, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{root: root, logger: logger}
}

// Path returns the file that holds the entry for fp.
func (s *Store) Path(fp Fingerprint) string {
	return filepath.Join(s.root, paletteDir, string(fp)+".json")
}

// IsPresent reports whether an entry file exists for fp. It does not validate it.
func (s *Store) IsPresent(fp Fingerprint) bool {
	_, err := os.Stat(s.Path(fp))
	return err == nil
}

// Lookup returns the cached palette for fp. A missing entry is a silent miss;
// an unreadable or corrupt entry is logged and also treated as a miss.
func (s *Store) Lookup(fp Fingerprint) (colour.Palette, bool) {
	path := s.Path(fp)
	data, err := os.ReadFile(path) // #nosec G304 - Path derived from cache root and fingerprint
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("failed to read cache entry", "path", path, "error", err)
		}
		return colour.Palette{}, false
	}

	var p colour.Palette
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Error("corrupt cache entry", "path", path, "error", err)
		return colour.Palette{}, false
	}
	return p, true
}

// Store writes the entry for fp, replacing any existing one.
func (s *Store) Store(fp Fingerprint, p colour.Palette) error {
	path := s.Path(fp)
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+string(fp)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &WriteError{Path: path, Err: err}
	}

	s.logger.Debug("stored palette", "path", path)
	return nil
}
