package runner

import (
	"context"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/pkg/domain"
)

// Engine is the part of the parley engine the runner and rich clients drive.
type Engine interface {
	Start(ctx context.Context, req parley.StartRequest) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Select(ctx context.Context, sessionID, eventID string) (*domain.Session, error)
	Replay(ctx context.Context, sessionID string) (*domain.Session, error)
	Render(s *domain.Session) (*domain.View, error)
}

var _ Engine = (*parley.Engine)(nil)

// RichResponse combines a session with the view of its current step for rich clients (MCP, scripts).
type RichResponse struct {
	Session *domain.Session `json:"session"`
	View    *domain.View    `json:"view"`
	Scores  []CategoryScore `json:"scores,omitempty"`
}

func render(eng Engine, s *domain.Session) (*RichResponse, error) {
	view, err := eng.Render(s)
	if err != nil {
		// The session is still returned so the caller can recover.
		return &RichResponse{Session: s}, err
	}
	resp := &RichResponse{Session: s, View: view}
	if s.IsDone() {
		resp.Scores = Scores(s)
	}
	return resp, nil
}

// StartAndRender starts a session and renders its first step.
func StartAndRender(ctx context.Context, eng Engine, req parley.StartRequest) (*RichResponse, error) {
	s, err := eng.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return render(eng, s)
}

// GetAndRender loads a session and renders its current step.
func GetAndRender(ctx context.Context, eng Engine, sessionID string) (*RichResponse, error) {
	s, err := eng.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return render(eng, s)
}

// SelectAndRender applies a choice and renders the step it leads to.
func SelectAndRender(ctx context.Context, eng Engine, sessionID, eventID string) (*RichResponse, error) {
	s, err := eng.Select(ctx, sessionID, eventID)
	if err != nil {
		return nil, err
	}
	return render(eng, s)
}

// ReplayAndRender restarts a session and renders its first step.
func ReplayAndRender(ctx context.Context, eng Engine, sessionID string) (*RichResponse, error) {
	s, err := eng.Replay(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return render(eng, s)
}
