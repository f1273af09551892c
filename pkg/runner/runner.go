package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/pkg/domain"
)

// Runner drives one session through an IOHandler until it ends or input runs out.
type Runner struct {
	Handler     IOHandler
	Logger      *slog.Logger
	OfferReplay bool
}

// NewRunner creates a Runner. Without WithInputHandler it plays on Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:      logging.NewNop(),
		OfferReplay: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run plays the stored session sessionID.
// Every accepted choice is persisted by the engine, so an interrupted run can be resumed.
// Running out of input, or typing "quit" or "exit", ends the run without error.
func (r *Runner) Run(ctx context.Context, eng Engine, sessionID string) error {
	s, err := eng.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	show := true
	for {
		view, err := eng.Render(s)
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if show {
			if err := r.Handler.Show(ctx, view); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
		show = true

		if view.Terminal {
			if err := r.Handler.Summary(ctx, s); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			again, err := r.askReplay(ctx)
			if err != nil || !again {
				return err
			}
			if s, err = eng.Replay(ctx, sessionID); err != nil {
				return err
			}
			r.Logger.Debug("Session replayed", "session_id", sessionID)
			continue
		}

		input, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if isQuit(input) {
			return nil
		}

		eventID, ok := ResolveChoice(view, input)
		if !ok {
			_ = r.Handler.SystemOutput(ctx, fmt.Sprintf("%q is not one of the options. Type a number from 1 to %d.", input, len(view.Options)))
			show = false
			continue
		}

		next, err := eng.Select(ctx, sessionID, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownOption) {
				_ = r.Handler.SystemOutput(ctx, err.Error())
				show = false
				continue
			}
			return err
		}
		r.Logger.Debug("Choice applied", "session_id", sessionID, "event_id", eventID, "step", next.CurrentStepID)
		s = next
	}
}

func (r *Runner) askReplay(ctx context.Context) (bool, error) {
	if !r.OfferReplay {
		return false, nil
	}
	if err := r.Handler.SystemOutput(ctx, "Play again? (y/N)"); err != nil {
		return false, err
	}
	answer, err := r.Handler.Input(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func isQuit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "quit", "exit":
		return true
	}
	return false
}
