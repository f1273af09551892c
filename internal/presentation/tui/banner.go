// Package tui holds the terminal decorations used by the parley CLI.
package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                      _             ",
	"  _ __   __ _ _ __ __| | ___ _   _  ",
	" | '_ \\ / _` | '__/ _` |/ _ \\ | | | ",
	" | |_) | (_| | | | (_| |  __/ |_| | ",
	" | .__/ \\__,_|_|  \\__,_|\\___|\\__, | ",
	" |_|                         |___/  ",
}

// Teal to amber, one stop per line.
var bannerColors = []string{"#2dd4bf", "#34d399", "#a3e635", "#facc15", "#fbbf24", "#f59e0b"}

// PrintBanner writes the parley banner and version to w.
// Colors are degraded to whatever the output supports.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.EnvColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  social practice, one step at a time  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
