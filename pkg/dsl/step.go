package dsl

import "github.com/parleyhq/parley/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// OptionModifier adjusts an option as it is added.
type OptionModifier func(*domain.Option)

// Score credits a category when the option is chosen.
func Score(c domain.Category, delta int) OptionModifier {
	return func(o *domain.Option) {
		if o.ScoreDeltas == nil {
			o.ScoreDeltas = make(map[domain.Category]int)
		}
		o.ScoreDeltas[c] += delta
	}
}

// Say sets the NPC line of the step.
func (s *StepBuilder) Say(text string) *StepBuilder {
	s.step.NPCText = text
	return s
}

// Option appends a choice leading to next.
func (s *StepBuilder) Option(eventID, label, next string, mods ...OptionModifier) *StepBuilder {
	opt := domain.Option{
		Label:      label,
		EventID:    eventID,
		NextStepID: next,
	}
	for _, mod := range mods {
		mod(&opt)
	}
	s.step.Options = append(s.step.Options, opt)
	return s
}

// Terminal removes every option, ending the dialogue at this step.
func (s *StepBuilder) Terminal() *StepBuilder {
	s.step.Options = nil
	return s
}

// Add starts (or resumes) another step on the same graph.
func (s *StepBuilder) Add(id string) *StepBuilder {
	return s.builder.Add(id)
}

// Build finishes the whole graph.
func (s *StepBuilder) Build() (domain.StepGraph, error) {
	return s.builder.Build()
}

// MustBuild finishes the whole graph, panicking on error.
func (s *StepBuilder) MustBuild() domain.StepGraph {
	return s.builder.MustBuild()
}

// Step returns the underlying domain.Step.
func (s *StepBuilder) Step() domain.Step {
	return s.step
}
