package runtime

import (
	"fmt"
	"maps"

	"github.com/parleyhq/parley/pkg/domain"
)

// Graph is a validated, read-only StepGraph.
// It is safe to share across sessions and replays; nothing mutates it after Compile.
type Graph struct {
	def       domain.StepGraph
	index     map[string]int
	reachable map[string]bool
	warnings  []string
}

// Compile validates a StepGraph once and indexes it for transitions.
// Every structural violation is collected into a *domain.GraphError.
func Compile(def *domain.StepGraph) (*Graph, error) {
	if def == nil {
		return nil, &domain.GraphError{Violations: []string{"graph is nil"}}
	}

	g := &Graph{
		def:   cloneGraph(def),
		index: make(map[string]int, len(def.Steps)),
	}

	var violations []string

	for i, step := range g.def.Steps {
		if step.ID == "" {
			violations = append(violations, fmt.Sprintf("step #%d has an empty id", i))
			continue
		}
		if _, dup := g.index[step.ID]; dup {
			violations = append(violations, fmt.Sprintf("duplicate step id %q", step.ID))
			continue
		}
		g.index[step.ID] = i
	}

	if _, ok := g.index[domain.StartStepID]; !ok {
		violations = append(violations, fmt.Sprintf("missing entry step %q", domain.StartStepID))
	}

	for _, step := range g.def.Steps {
		seen := make(map[string]bool, len(step.Options))
		for j, opt := range step.Options {
			if opt.EventID == "" {
				violations = append(violations, fmt.Sprintf("step %q option #%d has an empty event id", step.ID, j))
			} else if seen[opt.EventID] {
				g.warnings = append(g.warnings, fmt.Sprintf("step %q declares event id %q more than once; the first option wins", step.ID, opt.EventID))
			}
			seen[opt.EventID] = true

			if _, ok := g.index[opt.NextStepID]; !ok {
				violations = append(violations, fmt.Sprintf("step %q option %q points to unknown step %q", step.ID, opt.EventID, opt.NextStepID))
			}
			for cat, delta := range opt.ScoreDeltas {
				if delta < 0 {
					violations = append(violations, fmt.Sprintf("step %q option %q has negative delta %d for %q", step.ID, opt.EventID, delta, cat))
				}
			}
		}
	}

	g.reachable = g.crawl()
	if _, ok := g.index[domain.StartStepID]; ok && !g.terminalReachable() {
		violations = append(violations, "no terminal step is reachable from \"start\"")
	}

	if len(violations) > 0 {
		return nil, &domain.GraphError{GraphID: def.ID, Violations: violations}
	}
	return g, nil
}

// crawl walks the graph breadth-first from the entry step.
func (g *Graph) crawl() map[string]bool {
	visited := make(map[string]bool)
	if _, ok := g.index[domain.StartStepID]; !ok {
		return visited
	}

	queue := []string{domain.StartStepID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		i, ok := g.index[id]
		if !ok {
			continue
		}
		for _, opt := range g.def.Steps[i].Options {
			if _, exists := g.index[opt.NextStepID]; exists && !visited[opt.NextStepID] {
				queue = append(queue, opt.NextStepID)
			}
		}
	}
	return visited
}

func (g *Graph) terminalReachable() bool {
	for id := range g.reachable {
		if i, ok := g.index[id]; ok && g.def.Steps[i].IsTerminal() {
			return true
		}
	}
	return false
}

// ID returns the dialogue identifier.
func (g *Graph) ID() string {
	return g.def.ID
}

// Title returns the dialogue title.
func (g *Graph) Title() string {
	return g.def.Title
}

// Step resolves a step by id.
// The returned step is a copy; mutating its options does not affect the graph.
func (g *Graph) Step(id string) (domain.Step, bool) {
	i, ok := g.index[id]
	if !ok {
		return domain.Step{}, false
	}
	return cloneStep(g.def.Steps[i]), true
}

// Start returns the entry step.
func (g *Graph) Start() domain.Step {
	step, _ := g.Step(domain.StartStepID)
	return step
}

// Reachable reports whether the step can be reached from "start".
func (g *Graph) Reachable(id string) bool {
	return g.reachable[id]
}

// Warnings lists non-fatal irregularities found during Compile.
func (g *Graph) Warnings() []string {
	return g.warnings
}

// Definition returns a copy of the underlying StepGraph.
func (g *Graph) Definition() domain.StepGraph {
	return cloneGraph(&g.def)
}

func cloneGraph(def *domain.StepGraph) domain.StepGraph {
	out := domain.StepGraph{
		ID:    def.ID,
		Title: def.Title,
		Steps: make([]domain.Step, len(def.Steps)),
	}
	for i, step := range def.Steps {
		out.Steps[i] = cloneStep(step)
	}
	return out
}

func cloneStep(step domain.Step) domain.Step {
	s := domain.Step{ID: step.ID, NPCText: step.NPCText}
	if len(step.Options) > 0 {
		s.Options = make([]domain.Option, len(step.Options))
		for j, opt := range step.Options {
			opt.ScoreDeltas = maps.Clone(opt.ScoreDeltas)
			s.Options[j] = opt
		}
	}
	return s
}
