package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/internal/presentation/graph"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/proxy"
	"github.com/parleyhq/parley/pkg/runner"
)

// Engine is the part of the parley engine the HTTP adapter drives.
type Engine interface {
	Scenarios(ctx context.Context) ([]domain.ScenarioSummary, error)
	Scenario(ctx context.Context, scenarioID string) (*domain.Scenario, error)
	Start(ctx context.Context, req parley.StartRequest) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Select(ctx context.Context, sessionID, eventID string) (*domain.Session, error)
	Replay(ctx context.Context, sessionID string) (*domain.Session, error)
	Render(s *domain.Session) (*domain.View, error)
	Delete(ctx context.Context, sessionID string) error
	Subscribe(sessionID string) (<-chan *domain.SessionDiff, func())
	Watch(ctx context.Context) (<-chan string, error)
}

var _ Engine = (*parley.Engine)(nil)

// Server serves the REST surface over an Engine.
type Server struct {
	engine    Engine
	search    *proxy.SearchProxy
	chat      *proxy.ChatProxy
	metrics   *observability.Metrics
	logger    *slog.Logger
	heartbeat time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithSearchProxy enables POST /api/search.
func WithSearchProxy(p *proxy.SearchProxy) Option {
	return func(s *Server) { s.search = p }
}

// WithChatProxy enables POST /api/chat.
func WithChatProxy(p *proxy.ChatProxy) Option {
	return func(s *Server) { s.chat = p }
}

// WithMetrics exposes /metrics and counts failed requests.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHeartbeat sets the interval of SSE keep-alive comments. Zero disables them.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = d }
}

// NewHandler builds the HTTP handler for the engine.
// Requests matching a documented operation are validated against the embedded OpenAPI document.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	oapiRouter, err := newRouter(context.Background())
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(validateRequests(oapiRouter))

	r.Get("/health", s.getHealth)
	r.Get("/events", s.watchScenarios)
	r.Get("/scenarios", s.listScenarios)
	r.Get("/scenarios/{scenarioId}", s.getScenario)
	r.Get("/scenarios/{scenarioId}/dialogues/{dialogueId}/graph", s.getDialogueGraph)
	r.Post("/sessions", s.startSession)
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.deleteSession)
		r.Post("/select", s.selectOption)
		r.Post("/replay", s.replaySession)
		r.Get("/events", s.subscribeSession)
	})
	r.Post("/api/search", s.searchContent)
	r.Post("/api/chat", s.chatCompletion)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse pairs the stored session with the view of its current step.
type SessionResponse struct {
	Session *domain.Session `json:"session"`
	View    *domain.View    `json:"view"`
}

// SelectRequest is the body of POST /sessions/{sessionId}/select.
type SelectRequest struct {
	EventID string `json:"event_id"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Scenarios(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []domain.ScenarioSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	var scenarioID string
	if !s.pathParam(w, r, "scenarioId", &scenarioID) {
		return
	}
	sc, err := s.engine.Scenario(r.Context(), scenarioID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) getDialogueGraph(w http.ResponseWriter, r *http.Request) {
	var scenarioID, dialogueID string
	if !s.pathParam(w, r, "scenarioId", &scenarioID) || !s.pathParam(w, r, "dialogueId", &dialogueID) {
		return
	}
	var sessionID *string
	if err := runtime.BindQueryParameter("form", true, false, "session", r.URL.Query(), &sessionID); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid format for parameter session: %s", err)})
		return
	}

	sc, err := s.engine.Scenario(r.Context(), scenarioID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dialogue, err := sc.Dialogue(dialogueID)
	if err != nil {
		s.fail(w, r, fmt.Errorf("scenario %s: %w", scenarioID, err))
		return
	}

	var overlay *graph.Overlay
	if sessionID != nil && *sessionID != "" {
		sess, err := s.engine.Get(r.Context(), *sessionID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if sess.ScenarioID == scenarioID && sess.DialogueID == dialogue.ID {
			overlay = graph.OverlayFor(sess)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(*dialogue, overlay)))
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body parley.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if body.DisplayName != "" {
		clean, err := runner.SanitizeInput(body.DisplayName)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "invalid_request"})
			return
		}
		body.DisplayName = clean
	}

	sess, err := s.engine.Start(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, sess)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if !s.pathParam(w, r, "sessionId", &sessionID) {
		return
	}
	sess, err := s.engine.Get(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if !s.pathParam(w, r, "sessionId", &sessionID) {
		return
	}
	if err := s.engine.Delete(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectOption(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if !s.pathParam(w, r, "sessionId", &sessionID) {
		return
	}
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	eventID, err := runner.SanitizeInput(body.EventID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: "invalid_request"})
		return
	}

	sess, err := s.engine.Select(r.Context(), sessionID, eventID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

func (s *Server) replaySession(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if !s.pathParam(w, r, "sessionId", &sessionID) {
		return
	}
	sess, err := s.engine.Replay(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSession(w, r, http.StatusOK, sess)
}

func (s *Server) searchContent(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "search proxy is not configured"})
		return
	}
	var body proxy.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	out, err := s.search.Search(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) chatCompletion(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "chat proxy is not configured"})
		return
	}
	var body proxy.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	res, err := s.chat.Complete(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, sess *domain.Session) {
	view, err := s.engine.Render(sess)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, SessionResponse{Session: sess, View: view})
}

// pathParam binds a chi URL parameter the way generated chi-server code does.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid format for parameter %s: %s", name, err)})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveError(err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: observability.ErrorKind(err)})
}

// StatusFor maps engine and proxy errors to HTTP status codes.
func StatusFor(err error) int {
	var upstream *proxy.UpstreamError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrScenarioNotFound),
		errors.Is(err, domain.ErrDialogueNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, proxy.ErrEmptyQuery),
		errors.Is(err, proxy.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionAlreadyDone),
		errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidGraph):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
