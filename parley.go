package parley

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/internal/runtime"
	loamAdapter "github.com/parleyhq/parley/pkg/adapters/loam"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
	"github.com/parleyhq/parley/pkg/session"
)

// Engine is the high-level entry point for the parley library.
// It wraps the runtime with scenario resolution, graph caching and session persistence.
type Engine struct {
	runtime *runtime.Engine
	source  ports.ScenarioSource
	manager *session.Manager

	store        ports.SessionStore
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	interpolator runtime.Interpolator
	newID        func() string
	logger       *slog.Logger

	mu     sync.RWMutex
	graphs map[graphKey]*runtime.Graph

	changes *broker

	// Name labels the scenario collection (the base name of the directory, if any).
	Name string
}

type graphKey struct {
	scenario, dialogue string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a custom ScenarioSource, bypassing the default loam initialization.
func WithSource(src ports.ScenarioSource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithStore sets where sessions are persisted. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithInterpolator replaces the option label placeholder transform.
func WithInterpolator(interp runtime.Interpolator) Option {
	return func(e *Engine) {
		e.interpolator = interp
	}
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
// By default, scenarios are read through loam from dir. If WithSource is given, dir is only
// used as a label; if neither is given, the built-in scenarios are served.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		graphs:  make(map[graphKey]*runtime.Graph),
		changes: newBroker(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	switch {
	case eng.source != nil:
	case dir != "":
		src, err := loamAdapter.Open(dir)
		if err != nil {
			return nil, err
		}
		eng.source = src
	default:
		src, err := memory.NewSource(memory.Builtin()...)
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in scenarios: %w", err)
		}
		eng.source = src
		eng.Name = "builtin"
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("scenarios", eng.Name)
	}
	if eng.store == nil {
		eng.store = memory.New()
	}

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(eng.store, managerOpts...)

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithInterpolator(eng.interpolator),
		runtime.WithIDGenerator(eng.newID),
	)

	return eng, nil
}

// Source returns the scenario source.
func (e *Engine) Source() ports.ScenarioSource {
	return e.source
}

// Scenarios lists the available scenarios.
func (e *Engine) Scenarios(ctx context.Context) ([]domain.ScenarioSummary, error) {
	return e.source.ListScenarios(ctx)
}

// Scenario returns a scenario definition.
func (e *Engine) Scenario(ctx context.Context, scenarioID string) (*domain.Scenario, error) {
	return e.source.GetScenario(ctx, scenarioID)
}

// Graph returns the compiled graph for a dialogue, compiling and caching it on first use.
// An empty dialogueID selects the scenario's first dialogue.
func (e *Engine) Graph(ctx context.Context, scenarioID, dialogueID string) (*runtime.Graph, error) {
	key := graphKey{scenarioID, dialogueID}
	e.mu.RLock()
	g, ok := e.graphs[key]
	e.mu.RUnlock()
	if ok {
		return g, nil
	}

	sc, err := e.source.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	def, err := sc.Dialogue(dialogueID)
	if err != nil {
		return nil, fmt.Errorf("scenario %s dialogue %q: %w", scenarioID, dialogueID, err)
	}
	g, err = runtime.Compile(def)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenarioID, err)
	}

	e.mu.Lock()
	e.graphs[key] = g
	if dialogueID == "" {
		e.graphs[graphKey{scenarioID, g.ID()}] = g
	}
	e.mu.Unlock()
	return g, nil
}

// Invalidate drops cached graphs of a scenario, or all of them when scenarioID is empty.
// Sessions already in flight rebind to the new graph on their next request.
func (e *Engine) Invalidate(scenarioID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if scenarioID == "" {
		e.graphs = make(map[graphKey]*runtime.Graph)
		return
	}
	for k := range e.graphs {
		if k.scenario == scenarioID {
			delete(e.graphs, k)
		}
	}
}

// StartRequest describes a new session.
type StartRequest struct {
	ScenarioID  string `json:"scenario_id"`
	DialogueID  string `json:"dialogue_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	// SessionID is optional; one is generated when empty.
	SessionID string `json:"session_id,omitempty"`
}

// Start initializes and persists a new session.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*domain.Session, error) {
	g, err := e.Graph(ctx, req.ScenarioID, req.DialogueID)
	if err != nil {
		return nil, err
	}
	s, err := e.runtime.Initialize(ctx, g,
		runtime.WithSessionID(req.SessionID),
		runtime.WithScenario(req.ScenarioID),
		runtime.WithDisplayName(req.DisplayName),
	)
	if err != nil {
		return nil, err
	}
	if err := e.manager.Create(ctx, s); err != nil {
		return nil, err
	}
	e.logger.Info("Session started", "session_id", s.ID, "scenario_id", s.ScenarioID, "dialogue_id", s.DialogueID)
	e.changes.publish(s.ID, domain.Diff(nil, s))
	return s, nil
}

// Get loads a session and binds it to its graph.
func (e *Engine) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := e.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.bind(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) bind(ctx context.Context, s *domain.Session) error {
	g, err := e.Graph(ctx, s.ScenarioID, s.DialogueID)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Bind(g)
	return nil
}

// Select applies an option to a stored session and persists the result.
// On error nothing is persisted and the stored session is unchanged.
func (e *Engine) Select(ctx context.Context, sessionID, eventID string) (*domain.Session, error) {
	var before *domain.Session
	s, err := e.manager.Update(ctx, sessionID, func(s *domain.Session) (*domain.Session, error) {
		if err := e.bind(ctx, s); err != nil {
			return nil, err
		}
		before = s.Clone()
		return e.runtime.SelectOption(ctx, s, eventID)
	})
	if err != nil {
		return nil, err
	}
	e.changes.publish(s.ID, domain.Diff(before, s))
	return s, nil
}

// Replay resets a stored session to a fresh play-through of the same dialogue.
// The id, scenario and display name are kept; nothing else carries over.
func (e *Engine) Replay(ctx context.Context, sessionID string) (*domain.Session, error) {
	var before *domain.Session
	s, err := e.manager.Update(ctx, sessionID, func(old *domain.Session) (*domain.Session, error) {
		g, err := e.Graph(ctx, old.ScenarioID, old.DialogueID)
		if err != nil {
			return nil, err
		}
		before = old
		return e.runtime.Replay(ctx, g,
			runtime.WithSessionID(old.ID),
			runtime.WithScenario(old.ScenarioID),
			runtime.WithDisplayName(old.DisplayName),
		)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("Session replayed", "session_id", s.ID)
	e.changes.publish(s.ID, domain.Diff(before, s))
	return s, nil
}

// Render returns the view of a bound session.
func (e *Engine) Render(s *domain.Session) (*domain.View, error) {
	return e.runtime.Render(s)
}

// Delete removes a stored session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	if err := e.manager.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.changes.close(sessionID)
	return nil
}

// Sessions lists stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// Subscribe streams the diffs applied to a session until cancel is called or the session is deleted.
func (e *Engine) Subscribe(sessionID string) (<-chan *domain.SessionDiff, func()) {
	return e.changes.subscribe(sessionID)
}

// Watch invalidates cached graphs whenever the source reports a change and forwards the changed ids.
// Returns an error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.source.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current scenario source does not support watching")
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		for id := range events {
			// A document id is not necessarily the scenario id, so drop everything.
			e.Invalidate("")
			e.logger.Info("Scenarios changed", "id", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
