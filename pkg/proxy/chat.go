package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// DefaultChatModel is used when neither the config nor the request names a model.
const DefaultChatModel = openai.GPT4oMini

// DefaultSystemPrompt asks the model for the DraftStep JSON shape.
const DefaultSystemPrompt = `You write short practice conversations for people rehearsing social skills.
Answer with a JSON array only, no prose. Each element is a step:
{"id": string, "npc": string, "options": [{"label": string, "eventId": string, "next": string, "scores": {category: non-negative int}}]}
The first step has id "start". Steps without options end the conversation.
Categories: clarity, empathy, assertiveness, selfAdvocacy, socialAwareness.`

// ErrEmptyConversation is returned when a chat request has no messages.
var ErrEmptyConversation = errors.New("chat request has no messages")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the chat proxy.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
}

// ChatResult is the normalized answer.
type ChatResult struct {
	Steps []DraftStep `json:"steps"`
	// Fallback is true when Steps is the canned response.
	Fallback bool `json:"fallback"`
}

// ChatConfig configures a ChatProxy.
type ChatConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// ChatProxy forwards chat completions to an OpenAI-compatible API.
type ChatProxy struct {
	client       *openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	logger       *slog.Logger
	observer     Observer
}

// ChatOption configures a ChatProxy.
type ChatOption func(*ChatProxy)

// WithChatLogger sets the logger.
func WithChatLogger(l *slog.Logger) ChatOption {
	return func(p *ChatProxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithChatObserver records request outcomes.
func WithChatObserver(o Observer) ChatOption {
	return func(p *ChatProxy) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewChatProxy builds a proxy. An empty BaseURL targets api.openai.com.
func NewChatProxy(cfg ChatConfig, opts ...ChatOption) *ChatProxy {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	p := &ChatProxy{
		client:       openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
		logger:       logging.NewNop(),
		observer:     nopObserver{},
	}
	if p.model == "" {
		p.model = DefaultChatModel
	}
	if p.systemPrompt == "" {
		p.systemPrompt = DefaultSystemPrompt
	}
	if p.timeout <= 0 {
		p.timeout = 60 * time.Second
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete sends the conversation upstream and normalizes the assistant's answer.
// Transport and API errors are returned; an answer that is not a step array yields the canned steps.
func (p *ChatProxy) Complete(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: p.messages(req.Messages),
	})
	if err != nil {
		p.observer.ObserveProxy("chat", OutcomeError, time.Since(start))
		p.logger.Warn("Chat proxy failed", "model", model, "err", err)
		return nil, upstreamError(err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	steps, err := ParseSteps(content)
	if err != nil {
		p.logger.Warn("Unparseable chat completion, using canned response", "model", model, "err", err)
		p.observer.ObserveProxy("chat", OutcomeFallback, time.Since(start))
		return &ChatResult{Steps: CannedSteps(), Fallback: true}, nil
	}

	p.observer.ObserveProxy("chat", OutcomeOK, time.Since(start))
	return &ChatResult{Steps: steps}, nil
}

// upstreamError exposes API failures as *UpstreamError so callers can tell them apart from local ones.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("chat completion failed: %w", err)
}

func (p *ChatProxy) messages(in []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in)+1)
	hasSystem := false
	for _, m := range in {
		if m.Role == openai.ChatMessageRoleSystem {
			hasSystem = true
			break
		}
	}
	if !hasSystem {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.systemPrompt})
	}
	for _, m := range in {
		role := m.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// ParseSteps extracts a step array from model output.
// Markdown code fences are stripped; both a bare array and {"steps": [...]} are accepted.
func ParseSteps(content string) ([]DraftStep, error) {
	body := stripFences(content)
	if body == "" {
		return nil, errors.New("empty content")
	}

	var steps []DraftStep
	if err := json.Unmarshal([]byte(body), &steps); err != nil {
		var wrapped struct {
			Steps []DraftStep `json:"steps"`
		}
		if werr := json.Unmarshal([]byte(body), &wrapped); werr != nil || wrapped.Steps == nil {
			return nil, fmt.Errorf("not a step array: %w", err)
		}
		steps = wrapped.Steps
	}
	if len(steps) == 0 {
		return nil, errors.New("no steps")
	}
	for i := range steps {
		if steps[i].Options == nil {
			steps[i].Options = []DraftOption{}
		}
	}
	return steps, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (```json).
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
