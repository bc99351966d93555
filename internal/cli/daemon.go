package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// errDaemonNotImplemented is returned by the daemon subcommand.
var errDaemonNotImplemented = errors.New("daemon mode is not implemented yet")

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Watch for wallpaper changes and re-theme automatically (not implemented)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errDaemonNotImplemented
		},
	}
}
