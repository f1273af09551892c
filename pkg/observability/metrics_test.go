package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_UpdateCollectors(t *testing.T) {
	m := observability.NewMetrics()
	h := m.Hooks()
	ctx := context.Background()

	h.OnSessionStart(ctx, &domain.SessionEvent{DialogueID: "meet-alex"})
	h.OnStepEnter(ctx, &domain.StepEvent{DialogueID: "meet-alex", StepID: "start"})
	h.OnOptionSelected(ctx, &domain.SelectionEvent{DialogueID: "meet-alex", EventID: "CHOOSE_1"})
	h.OnStepEnter(ctx, &domain.StepEvent{DialogueID: "meet-alex", StepID: "end"})
	h.OnSessionDone(ctx, &domain.SessionEvent{
		DialogueID: "meet-alex",
		Turns:      1,
		Scores:     map[domain.Category]int{domain.Clarity: 1},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted.WithLabelValues("meet-alex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCompleted.WithLabelValues("meet-alex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepVisits.WithLabelValues("meet-alex", "end")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Selections.WithLabelValues("meet-alex", "CHOOSE_1")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FinalScores), "only credited categories are observed")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", domain.ErrInvalidGraph), "invalid_graph"},
		{&domain.GraphError{Violations: []string{"v"}}, "invalid_graph"},
		{fmt.Errorf("x: %w", domain.ErrSessionAlreadyDone), "session_already_done"},
		{fmt.Errorf("x: %w", domain.ErrUnknownOption), "unknown_option"},
		{domain.ErrSessionNotFound, "session_not_found"},
		{domain.ErrDialogueNotFound, "scenario_not_found"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, observability.ErrorKind(tt.err))
		})
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveError(domain.ErrUnknownOption)
	m.ObserveProxy("chat", "fallback", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `parley_errors_total{kind="unknown_option"} 1`)
	assert.Contains(t, string(body), `parley_proxy_requests_total{outcome="fallback",proxy="chat"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewMetrics_Independent(t *testing.T) {
	a, b := observability.NewMetrics(), observability.NewMetrics()
	a.ObserveError(domain.ErrUnknownOption)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Errors.WithLabelValues("unknown_option")))
}
