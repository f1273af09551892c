package runtime

import (
	"fmt"

	"github.com/parleyhq/parley/pkg/domain"
)

// Render builds the view of the session's current step without changing it.
// Option labels go through the same interpolator used for the transcript.
func (e *Engine) Render(s *domain.Session) (*domain.View, error) {
	if s == nil {
		return nil, fmt.Errorf("render: nil session")
	}
	step, err := s.CurrentStep()
	if err != nil {
		return nil, fmt.Errorf("render session %s: %w", s.ID, err)
	}

	view := &domain.View{
		SessionID: s.ID,
		StepID:    step.ID,
		NPCText:   step.NPCText,
		Options:   make([]domain.RenderedOption, 0, len(step.Options)),
		Terminal:  step.IsTerminal(),
	}
	for _, opt := range step.Options {
		view.Options = append(view.Options, domain.RenderedOption{
			EventID: opt.EventID,
			Label:   e.interpolator(opt.Label, s.DisplayName),
		})
	}
	return view, nil
}
