package ports

import (
	"context"

	"github.com/parleyhq/parley/pkg/domain"
)

// SessionStore defines the interface for persisting sessions between requests.
type SessionStore interface {
	// Save persists the session under the given id.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given id.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	// The returned session has no graph bound.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given id.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
