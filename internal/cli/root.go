// Package cli provides the command-line interface for tinct-cosmic.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tinct-cosmic/internal/version"
)

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath         string
	cacheDir           string
	overwriteCache     bool
	skipCachedSettings bool
	skipTemplates      bool
	backend            string
	threshold          int
	theme              string
	skipDesktop        bool
	skipTerminal       bool
	verbose            bool
	quiet              bool

	// Consumers of a generated palette. Replaced in tests.
	desktop  desktopFunc
	terminal terminalFunc
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{
		desktop:  applyDesktop,
		terminal: applyTerminal,
	})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tinct-cosmic",
		Short: "Theme the COSMIC desktop and your terminals from a wallpaper",
		Long: `tinct-cosmic extracts a colour palette from a wallpaper and applies it to the
COSMIC desktop theme and to every open terminal.

Palettes are cached by wallpaper content, so switching back to a wallpaper you
have used before is instant.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tinct-cosmic/config.toml)")
	flags.StringVarP(&opts.cacheDir, "cache-dir", "c", "", "cache directory (default: $XDG_CACHE_HOME/tinct-cosmic)")
	flags.BoolVar(&opts.overwriteCache, "overwrite-cache", false, "ignore cached palettes and extract again")
	flags.BoolVar(&opts.skipCachedSettings, "skip-cached-settings", false, "ignore settings remembered for the wallpaper")
	flags.BoolVar(&opts.skipTemplates, "skip-template-generation", false, "do not render configured templates")
	flags.StringVarP(&opts.backend, "backend", "b", "", "extraction backend (kmeans, resized, dominant, fastest-dominant, plugin:<path>)")
	flags.IntVar(&opts.threshold, "threshold", 0, "colour merge threshold (CIE76 delta E, 0-100)")
	flags.StringVar(&opts.theme, "theme", "", "theme type (auto, dark, light)")
	flags.BoolVar(&opts.skipDesktop, "skip-desktop", false, "do not apply the palette to the COSMIC desktop")
	flags.BoolVar(&opts.skipTerminal, "skip-terminal", false, "do not send the palette to terminals")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
