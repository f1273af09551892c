package cli

import (
	"io"
	"os"

	"github.com/parleyhq/parley/internal/presentation/tui"
	"github.com/parleyhq/parley/pkg/runner"
	"golang.org/x/term"
)

const maxWrapWidth = 100

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// rendererFor picks glamour for terminals and plain markdown for everything else.
func rendererFor(w io.Writer) runner.ContentRenderer {
	if !isTerminal(w) {
		return tui.PlainRenderer
	}
	width := 0
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = min(cols, maxWrapWidth)
		}
	}
	r, err := tui.NewRenderer(width)
	if err != nil {
		return tui.PlainRenderer
	}
	return r
}
