package tui

import (
	"github.com/charmbracelet/glamour"
	"github.com/parleyhq/parley/pkg/runner"
)

// NewRenderer returns a markdown renderer backed by glamour.
// When width is positive, text is wrapped to it.
func NewRenderer(width int) (runner.ContentRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle(), glamour.WithEmoji()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// PlainRenderer returns markdown untouched. Used when output is not a terminal.
func PlainRenderer(md string) (string, error) {
	return md, nil
}
