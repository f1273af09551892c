package dsl

import (
	"fmt"

	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	id    string
	title string
	order []string
	steps map[string]*StepBuilder
}

// New creates a new graph builder for the dialogue id.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		steps: make(map[string]*StepBuilder),
	}
}

// Title sets the dialogue title.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Add creates a new step in the graph.
// If the step already exists, it returns the existing builder.
func (b *Builder) Add(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		step:    domain.Step{ID: id},
		builder: b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Graph returns the graph definition without validating it.
func (b *Builder) Graph() domain.StepGraph {
	g := domain.StepGraph{
		ID:    b.id,
		Title: b.title,
		Steps: make([]domain.Step, 0, len(b.order)),
	}
	for _, id := range b.order {
		g.Steps = append(g.Steps, b.steps[id].step)
	}
	return g
}

// Build returns the graph definition after checking it compiles.
func (b *Builder) Build() (domain.StepGraph, error) {
	g := b.Graph()
	if _, err := runtime.Compile(&g); err != nil {
		return domain.StepGraph{}, fmt.Errorf("dialogue %s: %w", b.id, err)
	}
	return g, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() domain.StepGraph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// Scenario bundles dialogues into a scenario.
func Scenario(id, title, description string, dialogues ...domain.StepGraph) domain.Scenario {
	return domain.Scenario{
		ID:          id,
		Title:       title,
		Description: description,
		Dialogues:   dialogues,
	}
}
