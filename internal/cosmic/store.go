package cosmic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config entry ids.
const (
	DarkThemeID    = "com.system76.CosmicTheme.Dark"
	LightThemeID   = "com.system76.CosmicTheme.Light"
	DarkBuilderID  = DarkThemeID + ".Builder"
	LightBuilderID = LightThemeID + ".Builder"

	configVersion = 1
)

// ThemeID returns the built theme entry id for a dark or light theme.
func ThemeID(dark bool) string {
	if dark {
		return DarkThemeID
	}
	return LightThemeID
}

// BuilderID returns the builder entry id for a dark or light theme.
func BuilderID(dark bool) string {
	if dark {
		return DarkBuilderID
	}
	return LightBuilderID
}

// Store reads and writes COSMIC config entries laid out as
// <root>/<id>/v<version>/<key>, one RON value per file.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// DefaultStore returns the Store under the user config directory
// ($XDG_CONFIG_HOME/cosmic).
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w", err)
	}
	return NewStore(filepath.Join(dir, "cosmic")), nil
}

// Dir returns the directory holding the keys of entry id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id, "v"+strconv.Itoa(configVersion))
}

// ReadKey returns the raw value stored under key.
func (s *Store) ReadKey(id, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), key)) // #nosec G304 - Path built from fixed entry ids and keys
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteKey replaces the value stored under key.
func (s *Store) WriteKey(id, key, value string) error {
	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Config directory needs standard permissions
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", id, key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s/%s: %w", id, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s/%s: %w", id, key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s/%s: %w", id, key, err)
	}
	return nil
}

// ReadBuilder reads the builder entry id on top of def. Keys that are missing
// keep their default; keys that cannot be read or parsed are reported and
// also keep their default. The returned builder is always usable.
func (s *Store) ReadBuilder(id string, def ThemeBuilder) (ThemeBuilder, []error) {
	return readEntry(s, id, builderFields, def)
}

// WriteBuilder writes every key of b to entry id.
func (s *Store) WriteBuilder(id string, b ThemeBuilder) error {
	return writeEntry(s, id, builderFields, b)
}

// WriteTheme writes every key of t to entry id.
func (s *Store) WriteTheme(id string, t Theme) error {
	return writeEntry(s, id, themeFields, t)
}

func readEntry[T any](s *Store, id string, fields []entryField[T], v T) (T, []error) {
	var errs []error
	for _, f := range fields {
		raw, err := s.ReadKey(id, f.key)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("%s/%s: %w", id, f.key, err))
			}
			continue
		}
		parsed, err := parseRON(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", id, f.key, err))
			continue
		}
		// Decode into a copy so a half-decoded value never leaks out.
		next := v
		if err := f.decode(&next, parsed); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", id, f.key, err))
			continue
		}
		v = next
	}
	return v, errs
}

func writeEntry[T any](s *Store, id string, fields []entryField[T], v T) error {
	for _, f := range fields {
		if err := s.WriteKey(id, f.key, f.encode(v)); err != nil {
			return err
		}
	}
	return nil
}
