package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parleyhq/parley/pkg/domain"
)

// Store implements ports.SessionStore in process memory.
// Sessions are cloned on Save and on Load so callers never share maps or slices with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// New creates an empty in-memory session store.
func New() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	cp := session.Clone()
	cp.Bind(nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = cp
	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
