// Package security provides validation for paths supplied by users.
package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidatePluginPath checks that pluginPath names an executable regular file
// by absolute path. Relative paths are rejected so that a backend is never
// resolved against the working directory or $PATH.
func ValidatePluginPath(pluginPath string) error {
	if pluginPath == "" {
		return fmt.Errorf("empty plugin path")
	}
	if !filepath.IsAbs(pluginPath) {
		return fmt.Errorf("plugin path must be absolute: %s", pluginPath)
	}
	if filepath.Clean(pluginPath) != pluginPath {
		return fmt.Errorf("plugin path is not clean: %s", pluginPath)
	}

	info, err := os.Stat(pluginPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("plugin not found: %s", pluginPath)
		}
		return fmt.Errorf("failed to access plugin: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("plugin is not a regular file: %s", pluginPath)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("plugin is not executable: %s", pluginPath)
	}
	return nil
}
