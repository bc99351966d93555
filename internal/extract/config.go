// Package extract turns a wallpaper into a colour palette.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects whether the palette scheme is built for a dark or a light background.
type Mode string

const (
	// ModeDark builds a palette on a dark background.
	ModeDark Mode = "dark"
	// ModeLight builds a palette on a light background.
	ModeLight Mode = "light"
)

// Built-in backend names.
const (
	// BackendKMeans clusters a grid sample of the full image.
	BackendKMeans = "kmeans"
	// BackendResized clusters a downscaled copy of the image.
	BackendResized = "resized"
	// BackendDominant picks the most frequent quantised colours of a downscaled copy.
	BackendDominant = "dominant"
	// BackendFastestDominant is BackendDominant on a thumbnail.
	BackendFastestDominant = "fastest-dominant"

	// PluginBackendPrefix selects an external backend binary, e.g. "plugin:/usr/lib/foo".
	PluginBackendPrefix = "plugin:"
)

// DefaultThreshold is the ΔE below which two extracted colours are considered the same.
// It is a tunable, not a constant of the algorithm.
const DefaultThreshold = 20

// Config holds the extraction settings that influence the resulting palette.
// Every field participates in the cache fingerprint.
type Config struct {
	Backend   string `json:"backend"`
	Threshold int    `json:"threshold"`
	Colours   int    `json:"colours"`
	Mode      Mode   `json:"mode"`
}

// DefaultConfig returns the default extraction configuration.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendResized,
		Threshold: DefaultThreshold,
		Colours:   16,
		Mode:      ModeDark,
	}
}

// BuiltinBackends returns the names of the backends compiled into the binary.
func BuiltinBackends() []string {
	return []string{BackendKMeans, BackendResized, BackendDominant, BackendFastestDominant}
}

// PluginPath returns the plugin binary path when Backend names an external backend.
func (c Config) PluginPath() (string, bool) {
	if !strings.HasPrefix(c.Backend, PluginBackendPrefix) {
		return "", false
	}
	return strings.TrimPrefix(c.Backend, PluginBackendPrefix), true
}

// Validate validates the extraction configuration.
func (c Config) Validate() error {
	if path, ok := c.PluginPath(); ok {
		if path == "" {
			return fmt.Errorf("plugin backend requires a path (%s<path>)", PluginBackendPrefix)
		}
	} else if !isBuiltin(c.Backend) {
		return fmt.Errorf("invalid backend: %s (valid backends: %s, or %s<path>)",
			c.Backend, strings.Join(BuiltinBackends(), ", "), PluginBackendPrefix)
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %d", c.Threshold)
	}
	if c.Colours < 1 || c.Colours > 256 {
		return fmt.Errorf("colours must be between 1 and 256, got %d", c.Colours)
	}
	if c.Mode != ModeDark && c.Mode != ModeLight {
		return fmt.Errorf("invalid mode %q (valid: dark, light)", c.Mode)
	}
	return nil
}

// Canonical returns the stable serialisation used for fingerprinting.
func (c Config) Canonical() ([]byte, error) {
	return json.Marshal(c)
}

func isBuiltin(name string) bool {
	for _, b := range BuiltinBackends() {
		if b == name {
			return true
		}
	}
	return false
}
