package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Metrics groups every collector exported by parley.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	StepVisits        *prometheus.CounterVec
	Selections        *prometheus.CounterVec
	Errors            *prometheus.CounterVec
	FinalScores       *prometheus.HistogramVec
	Turns             prometheus.Histogram
	ProxyRequests     *prometheus.CounterVec
	ProxyDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry that also carries the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions initialized or replayed, by dialogue.",
		}, []string{"dialogue_id"}),
		SessionsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Sessions that reached a terminal step, by dialogue.",
		}, []string{"dialogue_id"}),
		StepVisits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_visits_total",
			Help:      "Steps entered, by dialogue and step.",
		}, []string{"dialogue_id", "step_id"}),
		Selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Accepted option selections, by dialogue and event id.",
		}, []string{"dialogue_id", "event_id"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Rejected operations, by error kind.",
		}, []string{"kind"}),
		FinalScores: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Score per category when a session completes. Categories never credited are not observed.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"category"}),
		Turns: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_turns",
			Help:      "Selections made before a session completed.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		ProxyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Proxy requests, by proxy and outcome.",
		}, []string{"proxy", "outcome"}),
		ProxyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proxy_duration_seconds",
			Help:      "Upstream latency of proxy requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"proxy"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks turns engine lifecycle events into metric updates.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsStarted.WithLabelValues(e.DialogueID).Inc()
		},
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.DialogueID, e.StepID).Inc()
		},
		OnOptionSelected: func(_ context.Context, e *domain.SelectionEvent) {
			m.Selections.WithLabelValues(e.DialogueID, e.EventID).Inc()
		},
		OnSessionDone: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsCompleted.WithLabelValues(e.DialogueID).Inc()
			m.Turns.Observe(float64(e.Turns))
			for cat, v := range e.Scores {
				m.FinalScores.WithLabelValues(string(cat)).Observe(float64(v))
			}
		},
	}
}

// ObserveError counts a rejected operation under a stable kind label.
func (m *Metrics) ObserveError(err error) {
	if err == nil {
		return
	}
	m.Errors.WithLabelValues(ErrorKind(err)).Inc()
}

// ObserveProxy records one proxy round trip.
func (m *Metrics) ObserveProxy(proxy, outcome string, elapsed time.Duration) {
	m.ProxyRequests.WithLabelValues(proxy, outcome).Inc()
	m.ProxyDuration.WithLabelValues(proxy).Observe(elapsed.Seconds())
}

// ErrorKind maps an error to a short label value.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidGraph):
		return "invalid_graph"
	case errors.Is(err, domain.ErrSessionAlreadyDone):
		return "session_already_done"
	case errors.Is(err, domain.ErrUnknownOption):
		return "unknown_option"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrSessionExists):
		return "session_exists"
	case errors.Is(err, domain.ErrScenarioNotFound), errors.Is(err, domain.ErrDialogueNotFound):
		return "scenario_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
