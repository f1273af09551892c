package domain

// StepKind discriminates the two shapes a Step can take.
type StepKind string

const (
	// StepChoice offers one or more options to the user.
	StepChoice StepKind = "choice"
	// StepTerminal has no options; reaching it ends the session.
	StepTerminal StepKind = "terminal"
)

// Option is a user-selectable response on a Step.
type Option struct {
	// Label is the display text. It may contain NamePlaceholder.
	Label string `json:"label" yaml:"label" mapstructure:"label"`

	// EventID identifies this choice within its owning step.
	EventID string `json:"event_id" yaml:"event_id" mapstructure:"event_id"`

	// NextStepID references a Step.ID in the same graph.
	NextStepID string `json:"next" yaml:"next" mapstructure:"next"`

	// ScoreDeltas credits each category by a non-negative amount. Absent categories count as zero.
	ScoreDeltas map[Category]int `json:"scores,omitempty" yaml:"scores,omitempty" mapstructure:"scores"`
}

// Step is one node of a StepGraph.
type Step struct {
	ID      string   `json:"id" yaml:"id" mapstructure:"id"`
	NPCText string   `json:"npc" yaml:"npc" mapstructure:"npc"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// Kind reports whether the step is terminal or offers choices.
func (s Step) Kind() StepKind {
	if len(s.Options) == 0 {
		return StepTerminal
	}
	return StepChoice
}

// IsTerminal is shorthand for Kind() == StepTerminal.
func (s Step) IsTerminal() bool {
	return s.Kind() == StepTerminal
}

// FindOption returns the first option whose EventID matches, in declaration order.
func (s Step) FindOption(eventID string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.EventID == eventID {
			return opt, true
		}
	}
	return Option{}, false
}

// StepGraph is the declarative definition of one playable dialogue.
type StepGraph struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Steps []Step `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// StepLookup resolves step identifiers against a graph.
// Sessions hold one to answer CurrentStep without owning the graph.
type StepLookup interface {
	Step(id string) (Step, bool)
	ID() string
}

// Scenario is a top-level practice unit containing one or more dialogues.
type Scenario struct {
	ID          string      `json:"id" yaml:"id" mapstructure:"id"`
	Title       string      `json:"title" yaml:"title" mapstructure:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Dialogues   []StepGraph `json:"dialogues" yaml:"dialogues" mapstructure:"dialogues"`
}

// Dialogue returns the dialogue with the given ID. An empty id selects the first dialogue.
func (s *Scenario) Dialogue(id string) (*StepGraph, error) {
	if len(s.Dialogues) == 0 {
		return nil, ErrDialogueNotFound
	}
	if id == "" {
		return &s.Dialogues[0], nil
	}
	for i := range s.Dialogues {
		if s.Dialogues[i].ID == id {
			return &s.Dialogues[i], nil
		}
	}
	return nil, ErrDialogueNotFound
}

// Summary returns the listing view of the scenario.
func (s *Scenario) Summary() ScenarioSummary {
	ids := make([]string, 0, len(s.Dialogues))
	for _, d := range s.Dialogues {
		ids = append(ids, d.ID)
	}
	return ScenarioSummary{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		DialogueIDs: ids,
	}
}

// ScenarioSummary is the lightweight view used by scenario listings.
type ScenarioSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DialogueIDs []string `json:"dialogue_ids"`
}
