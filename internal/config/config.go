// Package config loads tinct-cosmic settings from a config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jmylchreest/tinct-cosmic/internal/extract"
	"github.com/jmylchreest/tinct-cosmic/internal/template"
)

// EnvPrefix prefixes environment overrides, e.g. TINCT_COSMIC_THRESHOLD=17.
const EnvPrefix = "TINCT_COSMIC"

// Theme selections.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Config holds all application configuration.
type Config struct {
	CacheDir     string                   `mapstructure:"cache_dir"`
	Backend      string                   `mapstructure:"backend"`
	Threshold    int                      `mapstructure:"threshold"`
	Colours      int                      `mapstructure:"colours"`
	Theme        string                   `mapstructure:"theme"`
	LogLevel     string                   `mapstructure:"log_level"`
	SkipDesktop  bool                     `mapstructure:"skip_desktop"`
	SkipTerminal bool                     `mapstructure:"skip_terminal"`
	Templates    map[string]template.Spec `mapstructure:"templates"`
}

// Default returns the default configuration.
func Default() *Config {
	ext := extract.DefaultConfig()
	return &Config{
		Backend:   ext.Backend,
		Threshold: ext.Threshold,
		Colours:   ext.Colours,
		Theme:     ThemeAuto,
		LogLevel:  "info",
	}
}

// DefaultDir returns the directory searched for config.toml.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tinct-cosmic")
	}
	return filepath.Join(dir, "tinct-cosmic")
}

// Load reads configuration. With an empty path, config.toml is searched for in
// DefaultDir and the working directory and may be absent; an explicit path
// must exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	def := Default()
	v := viper.New()

	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("threshold", def.Threshold)
	v.SetDefault("colours", def.Colours)
	v.SetDefault("theme", def.Theme)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("skip_desktop", def.SkipDesktop)
	v.SetDefault("skip_terminal", def.SkipTerminal)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be checked by type alone.
func (c *Config) Validate() error {
	switch c.Theme {
	case ThemeDark, ThemeLight, ThemeAuto:
	default:
		return fmt.Errorf("invalid theme %q (valid: dark, light, auto)", c.Theme)
	}
	return nil
}

// Extraction returns the extraction settings for a theme mode.
func (c *Config) Extraction(mode extract.Mode) extract.Config {
	return extract.Config{
		Backend:   c.Backend,
		Threshold: c.Threshold,
		Colours:   c.Colours,
		Mode:      mode,
	}
}
