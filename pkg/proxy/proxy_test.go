package proxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) ObserveProxy(name, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, name+":"+outcome)
}

// fakeOpenAI answers every chat completion with content.
func fakeOpenAI(t *testing.T, content string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if gotBody != nil {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

const stepsJSON = `[{"id":"start","npc":"Hey!","options":[{"label":"Hi","eventId":"HI","next":"end","scores":{"clarity":1}}]},{"id":"end","npc":"Bye"}]`

func TestChatProxy_ParsesFencedContent(t *testing.T) {
	var body map[string]any
	srv := fakeOpenAI(t, "```json\n"+stepsJSON+"\n```", &body)
	rec := &recorder{}
	p := proxy.NewChatProxy(proxy.ChatConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "m1"}, proxy.WithChatObserver(rec))

	res, err := p.Complete(context.Background(), proxy.ChatRequest{
		Messages: []proxy.Message{{Role: "user", Content: "a greeting"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "HI", res.Steps[0].Options[0].EventID)
	assert.NotNil(t, res.Steps[1].Options)

	assert.Equal(t, "m1", body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, []string{"chat:ok"}, rec.outcomes)
}

func TestChatProxy_FallsBackOnProse(t *testing.T) {
	srv := fakeOpenAI(t, "Sure! Here is a conversation about lunch.", nil)
	rec := &recorder{}
	p := proxy.NewChatProxy(proxy.ChatConfig{BaseURL: srv.URL, APIKey: "test-key"}, proxy.WithChatObserver(rec))

	res, err := p.Complete(context.Background(), proxy.ChatRequest{
		Messages: []proxy.Message{{Role: "user", Content: "x"}},
		Model:    "override",
	})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, proxy.CannedSteps(), res.Steps)
	assert.Equal(t, []string{"chat:fallback"}, rec.outcomes)
}

func TestChatProxy_KeepsCallerSystemPrompt(t *testing.T) {
	var body map[string]any
	srv := fakeOpenAI(t, stepsJSON, &body)
	p := proxy.NewChatProxy(proxy.ChatConfig{BaseURL: srv.URL, APIKey: "test-key"})

	_, err := p.Complete(context.Background(), proxy.ChatRequest{
		Messages: []proxy.Message{{Role: "system", Content: "custom"}, {Content: "x"}},
	})
	require.NoError(t, err)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "custom", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestChatProxy_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := proxy.NewChatProxy(proxy.ChatConfig{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := p.Complete(context.Background(), proxy.ChatRequest{Messages: []proxy.Message{{Content: "x"}}})
	var upErr *proxy.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInternalServerError, upErr.Status)
}

func TestChatProxy_EmptyConversation(t *testing.T) {
	p := proxy.NewChatProxy(proxy.ChatConfig{})
	_, err := p.Complete(context.Background(), proxy.ChatRequest{})
	assert.ErrorIs(t, err, proxy.ErrEmptyConversation)
}

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"bare array", stepsJSON, false},
		{"wrapped", `{"steps":` + stepsJSON + `}`, false},
		{"fenced no lang", "```\n" + stepsJSON + "\n```", false},
		{"empty", "", true},
		{"empty array", "[]", true},
		{"prose", "hello", true},
		{"object without steps", `{"foo":1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := proxy.ParseSteps(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDraftGraph(t *testing.T) {
	steps, err := proxy.ParseSteps(stepsJSON)
	require.NoError(t, err)

	g, err := proxy.DraftGraph("draft", steps)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Steps[0].Options[0].ScoreDeltas[domain.Clarity])

	_, err = proxy.DraftGraph("canned", proxy.CannedSteps())
	assert.NoError(t, err, "the canned response must itself be playable")

	_, err = proxy.DraftGraph("bad", []proxy.DraftStep{{ID: "start", Options: []proxy.DraftOption{{EventID: "X", Next: "nowhere"}}}})
	assert.ErrorIs(t, err, domain.ErrInvalidGraph)
}

func TestSearchProxy_PassesArrayThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "small talk", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"total":2,"results":[{"title":"a"},{"title":"b"}]}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	p := proxy.NewSearchProxy(proxy.SearchConfig{BaseURL: srv.URL + "/search", APIKey: "k", Limit: 5}, proxy.WithSearchObserver(rec))

	out, err := p.Search(context.Background(), proxy.SearchRequest{Query: " small talk ", Limit: 50})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"a"},{"title":"b"}]`, string(out))
	assert.Equal(t, []string{"search:ok"}, rec.outcomes)
}

func TestSearchProxy_TopLevelArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [1,2,3]`))
	}))
	defer srv.Close()

	out, err := proxy.NewSearchProxy(proxy.SearchConfig{BaseURL: srv.URL}).Search(context.Background(), proxy.SearchRequest{Query: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, string(out))
}

func TestSearchProxy_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := proxy.NewSearchProxy(proxy.SearchConfig{BaseURL: srv.URL})
	_, err := p.Search(context.Background(), proxy.SearchRequest{Query: "x"})
	var upErr *proxy.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.Status)

	_, err = p.Search(context.Background(), proxy.SearchRequest{Query: "  "})
	assert.ErrorIs(t, err, proxy.ErrEmptyQuery)

	_, err = proxy.NewSearchProxy(proxy.SearchConfig{BaseURL: "::"}).Search(context.Background(), proxy.SearchRequest{Query: "x"})
	assert.Error(t, err)
}
