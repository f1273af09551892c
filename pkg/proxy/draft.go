package proxy

import (
	"fmt"

	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/pkg/domain"
)

// DraftStep is the step-like object the chat proxy returns.
type DraftStep struct {
	ID      string        `json:"id"`
	NPC     string        `json:"npc"`
	Options []DraftOption `json:"options"`
}

// DraftOption is one option of a DraftStep.
type DraftOption struct {
	Label   string         `json:"label"`
	EventID string         `json:"eventId"`
	Next    string         `json:"next"`
	Scores  map[string]int `json:"scores,omitempty"`
}

// CannedSteps is returned whenever the model's answer cannot be parsed.
func CannedSteps() []DraftStep {
	return []DraftStep{
		{
			ID:  "start",
			NPC: "Hi there! How is your day going?",
			Options: []DraftOption{
				{Label: "Pretty good, thanks for asking! How about yours?", EventID: "ASK_BACK", Next: "end", Scores: map[string]int{"empathy": 1, "socialAwareness": 1}},
				{Label: "Fine.", EventID: "SHORT", Next: "end"},
			},
		},
		{ID: "end", NPC: "Nice talking with you!", Options: []DraftOption{}},
	}
}

// DraftGraph converts draft steps into a StepGraph and checks that it compiles.
func DraftGraph(id string, steps []DraftStep) (domain.StepGraph, error) {
	g := domain.StepGraph{ID: id, Steps: make([]domain.Step, 0, len(steps))}
	for _, ds := range steps {
		st := domain.Step{ID: ds.ID, NPCText: ds.NPC}
		for _, do := range ds.Options {
			opt := domain.Option{Label: do.Label, EventID: do.EventID, NextStepID: do.Next}
			if len(do.Scores) > 0 {
				opt.ScoreDeltas = make(map[domain.Category]int, len(do.Scores))
				for k, v := range do.Scores {
					opt.ScoreDeltas[domain.Category(k)] = v
				}
			}
			st.Options = append(st.Options, opt)
		}
		g.Steps = append(g.Steps, st)
	}
	if _, err := runtime.Compile(&g); err != nil {
		return domain.StepGraph{}, fmt.Errorf("draft %s: %w", id, err)
	}
	return g, nil
}
