package domain

import (
	"maps"
	"slices"
	"time"
)

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusDone       SessionStatus = "done" // Terminal step reached
)

// Speaker identifies who produced a transcript line.
type Speaker string

const (
	SpeakerNPC  Speaker = "npc"
	SpeakerUser Speaker = "user"
)

// TranscriptEntry is one line of the conversation history.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Session is the mutable state of one play-through of a StepGraph.
// It is owned exclusively by whoever created it; the graph it is bound to is shared and read-only.
type Session struct {
	ID         string `json:"id"`
	ScenarioID string `json:"scenario_id,omitempty"`
	DialogueID string `json:"dialogue_id"`

	// DisplayName is substituted into option labels containing NamePlaceholder.
	DisplayName string `json:"display_name,omitempty"`

	CurrentStepID string            `json:"current_step_id"`
	Status        SessionStatus     `json:"status"`
	Scores        map[Category]int  `json:"scores"`
	Transcript    []TranscriptEntry `json:"transcript"`

	// Path lists the steps entered so far, starting with StartStepID.
	Path []string `json:"path"`

	// Turn counts accepted selections.
	Turn int `json:"turn"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds an encrypted snapshot when the session is stored through an encrypting store.
	Sealed []byte `json:"sealed,omitempty"`

	graph StepLookup
}

// NewSession creates a clean session positioned at StartStepID.
// Callers normally go through the runtime engine, which also seeds the transcript.
func NewSession(id, dialogueID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            id,
		DialogueID:    dialogueID,
		CurrentStepID: StartStepID,
		Status:        StatusInProgress,
		Path:          []string{StartStepID},
		Scores:        make(map[Category]int),
		Transcript:    []TranscriptEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Bind attaches the graph used to resolve steps. It is not serialized.
func (s *Session) Bind(g StepLookup) {
	s.graph = g
}

// Graph returns the bound graph, or nil.
func (s *Session) Graph() StepLookup {
	return s.graph
}

// CurrentStep resolves the current step against the bound graph.
func (s *Session) CurrentStep() (Step, error) {
	if s.graph == nil {
		return Step{}, ErrGraphNotBound
	}
	step, ok := s.graph.Step(s.CurrentStepID)
	if !ok {
		return Step{}, ErrInvalidGraph
	}
	return step, nil
}

// IsDone reports whether the session reached a terminal step.
func (s *Session) IsDone() bool {
	return s.Status == StatusDone
}

// Score returns the accumulated score for a category.
// The boolean is false when no selected option ever credited the category,
// which callers must treat as "not applicable" rather than zero.
func (s *Session) Score(c Category) (int, bool) {
	v, ok := s.Scores[c]
	return v, ok
}

// Clone returns a deep copy, keeping the graph binding.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Scores = maps.Clone(s.Scores)
	if c.Scores == nil {
		c.Scores = make(map[Category]int)
	}
	c.Transcript = slices.Clone(s.Transcript)
	if c.Transcript == nil {
		c.Transcript = []TranscriptEntry{}
	}
	c.Path = slices.Clone(s.Path)
	c.Sealed = slices.Clone(s.Sealed)
	return &c
}
