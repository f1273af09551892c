package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/pkg/domain"
)

// Engine is the dialogue session state machine.
// It holds configuration only; all per-play-through state lives in domain.Session.
type Engine struct {
	hooks        domain.LifecycleHooks
	interpolator Interpolator
	logger       *slog.Logger
	newID        func() string
	now          func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithInterpolator replaces the label placeholder transform.
func WithInterpolator(interp Interpolator) EngineOption {
	return func(e *Engine) {
		if interp != nil {
			e.interpolator = interp
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		interpolator: NameInterpolator(DefaultFallbackName),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SessionOption customizes a session at creation time.
type SessionOption func(*domain.Session)

// WithSessionID fixes the session identifier instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *domain.Session) {
		if id != "" {
			s.ID = id
		}
	}
}

// WithDisplayName records the name substituted into option labels.
func WithDisplayName(name string) SessionOption {
	return func(s *domain.Session) {
		s.DisplayName = name
	}
}

// WithScenario tags the session with the scenario it belongs to.
func WithScenario(scenarioID string) SessionOption {
	return func(s *domain.Session) {
		s.ScenarioID = scenarioID
	}
}

// Initialize creates a new session positioned at the entry step.
// The transcript is seeded with the entry step's NPC line.
func (e *Engine) Initialize(ctx context.Context, g *Graph, opts ...SessionOption) (*domain.Session, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", domain.ErrInvalidGraph)
	}
	for _, w := range g.Warnings() {
		e.logger.Warn("Graph irregularity", "dialogue_id", g.ID(), "warning", w)
	}

	s := domain.NewSession(e.newID(), g.ID())
	for _, opt := range opts {
		opt(s)
	}
	now := e.now()
	s.CreatedAt, s.UpdatedAt = now, now
	s.Bind(g)

	start := g.Start()
	s.Transcript = append(s.Transcript, domain.TranscriptEntry{Speaker: domain.SpeakerNPC, Text: start.NPCText})
	if start.IsTerminal() {
		s.Status = domain.StatusDone
	}

	e.logger.Debug("Session initialized", "session_id", s.ID, "dialogue_id", s.DialogueID)

	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, e.sessionEvent(domain.EventSessionStart, s))
	}
	e.emitStepEnter(ctx, s, start)
	if s.IsDone() && e.hooks.OnSessionDone != nil {
		e.hooks.OnSessionDone(ctx, e.sessionEvent(domain.EventSessionDone, s))
	}

	return s, nil
}

// Replay discards any previous attempt and returns a brand-new session for the same graph.
// It is exactly Initialize: nothing from an earlier session is consulted.
func (e *Engine) Replay(ctx context.Context, g *Graph, opts ...SessionOption) (*domain.Session, error) {
	return e.Initialize(ctx, g, opts...)
}

// SelectOption applies the option named by eventID to the session's current step.
//
// On success the session is mutated in place, in this order: the user's line is
// appended, score deltas are accumulated, the current step moves, and the new
// step's NPC line is appended. Reaching a step without options marks the session done.
// On error the session is left untouched.
//
// If several options share eventID, the first one in declaration order is taken.
func (e *Engine) SelectOption(ctx context.Context, s *domain.Session, eventID string) (*domain.Session, error) {
	if s == nil {
		return nil, fmt.Errorf("select option: nil session")
	}
	if s.IsDone() {
		return nil, fmt.Errorf("session %s: %w", s.ID, domain.ErrSessionAlreadyDone)
	}

	current, err := s.CurrentStep()
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}

	opt, ok := current.FindOption(eventID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w: %q is not offered at step %q", s.ID, domain.ErrUnknownOption, eventID, current.ID)
	}

	// Compile already rejected dangling targets.
	next, ok := s.Graph().Step(opt.NextStepID)
	if !ok {
		return nil, fmt.Errorf("%w: step %q option %q points to unknown step %q", domain.ErrInvalidGraph, current.ID, eventID, opt.NextStepID)
	}

	// 1. User line
	s.Transcript = append(s.Transcript, domain.TranscriptEntry{
		Speaker: domain.SpeakerUser,
		Text:    e.interpolator(opt.Label, s.DisplayName),
	})

	// 2. Scores
	if s.Scores == nil {
		s.Scores = make(map[domain.Category]int)
	}
	for cat, delta := range opt.ScoreDeltas {
		s.Scores[cat] += delta
	}

	// 3. Transition
	s.CurrentStepID = next.ID
	s.Path = append(s.Path, next.ID)

	// 4. NPC line and terminal detection
	s.Transcript = append(s.Transcript, domain.TranscriptEntry{Speaker: domain.SpeakerNPC, Text: next.NPCText})
	if next.IsTerminal() {
		s.Status = domain.StatusDone
	}
	s.Turn++
	s.UpdatedAt = e.now()

	e.logger.Debug("Option selected",
		"session_id", s.ID,
		"from", current.ID,
		"event_id", eventID,
		"to", next.ID,
		"done", s.IsDone(),
	)

	if e.hooks.OnOptionSelected != nil {
		e.hooks.OnOptionSelected(ctx, &domain.SelectionEvent{
			EventBase:   e.base(domain.EventOptionSelected, s),
			DialogueID:  s.DialogueID,
			FromStepID:  current.ID,
			EventID:     eventID,
			ToStepID:    next.ID,
			ScoreDeltas: maps.Clone(opt.ScoreDeltas),
		})
	}
	e.emitStepEnter(ctx, s, next)
	if s.IsDone() && e.hooks.OnSessionDone != nil {
		e.hooks.OnSessionDone(ctx, e.sessionEvent(domain.EventSessionDone, s))
	}

	return s, nil
}

func (e *Engine) emitStepEnter(ctx context.Context, s *domain.Session, step domain.Step) {
	if e.hooks.OnStepEnter == nil {
		return
	}
	e.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase:  e.base(domain.EventStepEnter, s),
		DialogueID: s.DialogueID,
		StepID:     step.ID,
		Kind:       step.Kind(),
	})
}

func (e *Engine) sessionEvent(t domain.EventType, s *domain.Session) *domain.SessionEvent {
	scores := make(map[domain.Category]int, len(s.Scores))
	for k, v := range s.Scores {
		scores[k] = v
	}
	return &domain.SessionEvent{
		EventBase:  e.base(t, s),
		DialogueID: s.DialogueID,
		Turns:      s.Turn,
		Scores:     scores,
	}
}

func (e *Engine) base(t domain.EventType, s *domain.Session) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		SessionID: s.ID,
	}
}
