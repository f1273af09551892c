package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parleyhq/parley/pkg/domain"
)

// Source implements ports.ScenarioSource over a fixed set of scenarios held in memory.
// Scenarios are deep-copied on the way in and on the way out.
type Source struct {
	mu        sync.RWMutex
	scenarios map[string]domain.Scenario
}

// NewSource creates a Source preloaded with the given scenarios.
func NewSource(scenarios ...domain.Scenario) (*Source, error) {
	s := &Source{scenarios: make(map[string]domain.Scenario, len(scenarios))}
	for _, sc := range scenarios {
		if err := s.Add(sc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSource is like NewSource but panics on error. Intended for tests and built-in data.
func MustSource(scenarios ...domain.Scenario) *Source {
	s, err := NewSource(scenarios...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add registers (or replaces) a scenario.
func (s *Source) Add(sc domain.Scenario) error {
	if sc.ID == "" {
		return fmt.Errorf("scenario missing ID")
	}
	if len(sc.Dialogues) == 0 {
		return fmt.Errorf("scenario %s has no dialogues", sc.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = cloneScenario(sc)
	return nil
}

// GetScenario returns a copy of the scenario with the given id.
func (s *Source) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	out := cloneScenario(sc)
	return &out, nil
}

// ListScenarios returns all scenario summaries in deterministic order.
func (s *Source) ListScenarios(ctx context.Context) ([]domain.ScenarioSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScenarioSummary, 0, len(s.scenarios))
	for _, sc := range s.scenarios {
		out = append(out, sc.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneScenario(sc domain.Scenario) domain.Scenario {
	out := sc
	out.Dialogues = make([]domain.StepGraph, len(sc.Dialogues))
	for i, g := range sc.Dialogues {
		out.Dialogues[i] = cloneGraph(g)
	}
	return out
}

func cloneGraph(g domain.StepGraph) domain.StepGraph {
	out := g
	out.Steps = make([]domain.Step, len(g.Steps))
	for i, st := range g.Steps {
		cp := st
		cp.Options = make([]domain.Option, len(st.Options))
		for j, o := range st.Options {
			oc := o
			if o.ScoreDeltas != nil {
				oc.ScoreDeltas = make(map[domain.Category]int, len(o.ScoreDeltas))
				for k, v := range o.ScoreDeltas {
					oc.ScoreDeltas[k] = v
				}
			}
			cp.Options[j] = oc
		}
		out.Steps[i] = cp
	}
	return out
}
