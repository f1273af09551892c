package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
)

// Message types written by JSONHandler.
const (
	MessageStep    = "step"
	MessageSummary = "summary"
	MessageSystem  = "system"
)

// Message is one line of JSONHandler output.
type Message struct {
	Type    string          `json:"type"`
	View    *domain.View    `json:"view,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
	Scores  []CategoryScore `json:"scores,omitempty"`
	Text    string          `json:"message,omitempty"`
}

// JSONHandler implements IOHandler over newline-delimited JSON.
// Input lines may be a JSON string, an object with an "event_id" field, or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Show(ctx context.Context, view *domain.View) error {
	return h.Encoder.Encode(Message{Type: MessageStep, View: view})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return SanitizeInput(decodeInput(text))
	}
}

func decodeInput(text string) string {
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	var obj struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj.EventID != "" {
		return obj.EventID
	}
	return text
}

func (h *JSONHandler) Summary(ctx context.Context, s *domain.Session) error {
	return h.Encoder.Encode(Message{Type: MessageSummary, Session: s, Scores: Scores(s)})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Text: msg})
}
