package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGraph is returned when a StepGraph violates a structural invariant.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrSessionAlreadyDone is returned when an option is selected on a finished session.
	ErrSessionAlreadyDone = errors.New("session already done")

	// ErrUnknownOption is returned when the event id does not name an option of the current step.
	ErrUnknownOption = errors.New("unknown option")

	// ErrGraphNotBound is returned when a session has no graph attached (e.g. freshly loaded from a store).
	ErrGraphNotBound = errors.New("session has no graph bound")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose ID is already stored.
	ErrSessionExists = errors.New("session already exists")

	// ErrScenarioNotFound is returned when a scenario ID is unknown to the source.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrDialogueNotFound is returned when a scenario has no dialogue with the requested ID.
	ErrDialogueNotFound = errors.New("dialogue not found")
)

// GraphError aggregates every structural violation found in a StepGraph.
// It unwraps to ErrInvalidGraph.
type GraphError struct {
	GraphID    string
	Violations []string
}

func (e *GraphError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("graph %q: %s", e.GraphID, e.Violations[0])
	}
	return fmt.Sprintf("graph %q: %d violations:\n- %s", e.GraphID, len(e.Violations), strings.Join(e.Violations, "\n- "))
}

func (e *GraphError) Unwrap() error {
	return ErrInvalidGraph
}
