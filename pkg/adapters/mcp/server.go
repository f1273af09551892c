package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/runner"
)

// ScenariosURI is the resource listing every available scenario.
const ScenariosURI = "parley://scenarios"

// Engine defines what the MCP server needs from the parley engine.
type Engine interface {
	runner.Engine
	Scenarios(ctx context.Context) ([]domain.ScenarioSummary, error)
}

// SessionResponse is the structured result of every session tool.
type SessionResponse struct {
	Session  *domain.Session        `json:"session" jsonschema_description:"The stored session state"`
	View     *domain.View           `json:"view" jsonschema_description:"The current step with its options"`
	Scores   []runner.CategoryScore `json:"scores,omitempty" jsonschema_description:"Score summary, present once the session is done"`
	Terminal bool                   `json:"terminal" jsonschema_description:"Indicates the conversation has ended"`
}

// Server exposes the engine as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the practice scenarios and their dialogues."),
	), s.handleListScenarios)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start practicing a dialogue. Returns the first NPC line and the options."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Scenario to practice")),
		mcp.WithString("dialogue_id", mcp.Description("Dialogue within the scenario (defaults to the first)")),
		mcp.WithString("display_name", mcp.Description("Name substituted into option labels")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("select_option",
		mcp.WithDescription("Answer the current step by choosing one of its options."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_session")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("Event id of the chosen option")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("replay_session",
		mcp.WithDescription("Restart a session from the beginning of its dialogue."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to restart")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplay))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Show the current state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to show")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))
}

func (s *Server) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.engine.Scenarios(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	data, _ := json.Marshal(list)
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	return runner.SanitizeInput(strings.TrimSpace(v))
}

func toResponse(rich *runner.RichResponse) SessionResponse {
	return SessionResponse{
		Session:  rich.Session,
		View:     rich.View,
		Scores:   rich.Scores,
		Terminal: rich.View != nil && rich.View.Terminal,
	}
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	var req parley.StartRequest
	var err error
	if req.ScenarioID, err = stringArg(args, "scenario_id"); err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if req.DialogueID, err = stringArg(args, "dialogue_id"); err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if req.DisplayName, err = stringArg(args, "display_name"); err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	rich, err := runner.StartAndRender(ctx, s.engine, req)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("MCP: Session started", "session_id", rich.Session.ID)
	return toResponse(rich), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	eventID, err := stringArg(args, "event_id")
	if err != nil {
		s.logger.Warn("MCP Select: Input rejected", "err", err)
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	rich, err := runner.SelectAndRender(ctx, s.engine, sessionID, eventID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("select failed: %w", err)
	}
	return toResponse(rich), nil
}

func (s *Server) handleReplay(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	rich, err := runner.ReplayAndRender(ctx, s.engine, sessionID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("replay failed: %w", err)
	}
	return toResponse(rich), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	rich, err := runner.GetAndRender(ctx, s.engine, sessionID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("get failed: %w", err)
	}
	return toResponse(rich), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ScenariosURI, "Practice scenarios",
		mcp.WithMIMEType("application/json"),
	), s.readScenarios)
}

func (s *Server) readScenarios(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.engine.Scenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	data, _ := json.Marshal(list)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ScenariosURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
