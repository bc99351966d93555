// tinct-cosmic - Wallpaper-driven theming for the COSMIC desktop
//
// tinct-cosmic extracts a colour palette from a wallpaper and applies it to
// the COSMIC desktop theme and to open terminals.
package main

import (
	"github.com/jmylchreest/tinct-cosmic/internal/cli"
)

func main() {
	cli.Execute()
}
