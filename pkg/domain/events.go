package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventStepEnter      EventType = "step_enter"
	EventOptionSelected EventType = "option_selected"
	EventSessionDone    EventType = "session_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entering a step (including the start step).
type StepEvent struct {
	EventBase
	DialogueID string   `json:"dialogue_id"`
	StepID     string   `json:"step_id"`
	Kind       StepKind `json:"kind"`
}

// SelectionEvent represents an accepted option selection.
type SelectionEvent struct {
	EventBase
	DialogueID  string           `json:"dialogue_id"`
	FromStepID  string           `json:"from_step_id"`
	EventID     string           `json:"event_id"`
	ToStepID    string           `json:"to_step_id"`
	ScoreDeltas map[Category]int `json:"score_deltas,omitempty"`
}

// SessionEvent represents a session starting or finishing.
type SessionEvent struct {
	EventBase
	DialogueID string           `json:"dialogue_id"`
	Turns      int              `json:"turns"`
	Scores     map[Category]int `json:"scores,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnSessionStart   func(context.Context, *SessionEvent)
	OnStepEnter      func(context.Context, *StepEvent)
	OnOptionSelected func(context.Context, *SelectionEvent)
	OnSessionDone    func(context.Context, *SessionEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart:   chain(h.OnSessionStart, other.OnSessionStart),
		OnStepEnter:      chain(h.OnStepEnter, other.OnStepEnter),
		OnOptionSelected: chain(h.OnOptionSelected, other.OnOptionSelected),
		OnSessionDone:    chain(h.OnSessionDone, other.OnSessionDone),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
