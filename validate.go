package parley

import (
	"context"
	"errors"

	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/pkg/domain"
)

// Report is the validation outcome of one dialogue.
type Report struct {
	ScenarioID string   `json:"scenario_id"`
	DialogueID string   `json:"dialogue_id"`
	Violations []string `json:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	// Err is set when the scenario itself could not be loaded.
	Err error `json:"-"`
}

// OK reports whether the dialogue can be played.
func (r Report) OK() bool {
	return r.Err == nil && len(r.Violations) == 0
}

// Validate compiles every dialogue of every scenario and reports what it found.
// The returned error only covers failing to list scenarios.
func (e *Engine) Validate(ctx context.Context) ([]Report, error) {
	list, err := e.source.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}

	var reports []Report
	for _, summary := range list {
		sc, err := e.source.GetScenario(ctx, summary.ID)
		if err != nil {
			reports = append(reports, Report{ScenarioID: summary.ID, Err: err})
			continue
		}
		reports = append(reports, ValidateScenario(sc)...)
	}
	return reports, nil
}

// ValidateScenario compiles each dialogue of sc.
func ValidateScenario(sc *domain.Scenario) []Report {
	reports := make([]Report, 0, len(sc.Dialogues))
	for i := range sc.Dialogues {
		r := Report{ScenarioID: sc.ID, DialogueID: sc.Dialogues[i].ID}
		g, err := runtime.Compile(&sc.Dialogues[i])
		var gerr *domain.GraphError
		switch {
		case errors.As(err, &gerr):
			r.Violations = gerr.Violations
		case err != nil:
			r.Err = err
		default:
			r.Warnings = g.Warnings()
		}
		reports = append(reports, r)
	}
	return reports
}
