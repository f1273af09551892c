package runner

import (
	"context"

	"github.com/parleyhq/parley/pkg/domain"
)

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Show presents the current step.
	Show(ctx context.Context, view *domain.View) error

	// Input reads one response from the player.
	// It returns io.EOF when the input is exhausted.
	Input(ctx context.Context) (string, error)

	// Summary presents the result of a finished session.
	Summary(ctx context.Context, s *domain.Session) error

	// SystemOutput presents a meta-message (invalid choice, replay prompt).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms Markdown before it is written (e.g. to ANSI).
type ContentRenderer func(string) (string, error)
