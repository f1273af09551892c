package ports

import (
	"context"

	"github.com/parleyhq/parley/pkg/domain"
)

// ScenarioSource supplies read-only scenario definitions.
// The engine does not care whether they come from a constant, files, or a generator.
type ScenarioSource interface {
	// GetScenario returns the scenario with the given id.
	// Returns domain.ErrScenarioNotFound if it does not exist.
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)

	// ListScenarios returns a summary of every available scenario, ordered by id.
	ListScenarios(ctx context.Context) ([]domain.ScenarioSummary, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload during authoring.
type Watchable interface {
	// Watch returns a channel that receives the id of whatever changed.
	Watch(ctx context.Context) (<-chan string, error)
}
