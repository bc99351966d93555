// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options configures the process logger.
type Options struct {
	Name   string
	Level  string
	Output io.Writer
}

// New returns a logger for opts. An unknown level is an error so that a typo
// in the config file is caught at startup.
func New(opts Options) (hclog.Logger, error) {
	level := hclog.Info
	if opts.Level != "" {
		level = hclog.LevelFromString(opts.Level)
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("invalid log level %q (valid: trace, debug, info, warn, error, off)", opts.Level)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   opts.Name,
		Level:  level,
		Output: out,
		Color:  hclog.AutoColor,
	}), nil
}

// LevelFor resolves the effective level from the verbosity flags and the
// configured level. Flags win over configuration.
func LevelFor(verbose, quiet bool, configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	default:
		return strings.ToLower(configured)
	}
}
