package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/presentation/tui"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/runner"
)

// PlayOptions configures an interactive session.
type PlayOptions struct {
	ScenarioID  string
	DialogueID  string
	DisplayName string

	// SessionID resumes a stored session, or names the new one when none exists.
	SessionID string
	// Fresh discards a stored session with the same id before starting.
	Fresh bool

	JSON   bool
	Banner bool

	In  io.Reader
	Out io.Writer
}

// Play starts or resumes a session and runs it against In and Out.
func Play(ctx context.Context, app *App, opts PlayOptions) error {
	sessionID, err := prepareSession(ctx, app, opts)
	if err != nil {
		return err
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		if opts.Banner {
			tui.PrintBanner(opts.Out, parley.Version)
		}
		handler = runner.NewTextHandler(opts.In, opts.Out,
			runner.WithTextHandlerRenderer(rendererFor(opts.Out)))
	}

	r := runner.NewRunner(
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
	)
	err = r.Run(ctx, app.Engine, sessionID)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func prepareSession(ctx context.Context, app *App, opts PlayOptions) (string, error) {
	if opts.SessionID != "" {
		if opts.Fresh {
			if err := app.Engine.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				return "", err
			}
		} else {
			s, err := app.Engine.Get(ctx, opts.SessionID)
			if err == nil {
				app.Logger.Info("Session resumed", "session_id", s.ID, "step_id", s.CurrentStepID)
				return s.ID, nil
			}
			if !errors.Is(err, domain.ErrSessionNotFound) {
				return "", err
			}
		}
	}

	scenarioID := opts.ScenarioID
	if scenarioID == "" {
		id, err := defaultScenario(ctx, app.Engine)
		if err != nil {
			return "", err
		}
		scenarioID = id
	}

	s, err := app.Engine.Start(ctx, parley.StartRequest{
		ScenarioID:  scenarioID,
		DialogueID:  opts.DialogueID,
		DisplayName: opts.DisplayName,
		SessionID:   opts.SessionID,
	})
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// defaultScenario is the first scenario by id.
func defaultScenario(ctx context.Context, engine *parley.Engine) (string, error) {
	list, err := engine.Scenarios(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no scenarios available: %w", domain.ErrScenarioNotFound)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list[0].ID, nil
}
