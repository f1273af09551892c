package proxy

import "time"

// Outcome labels for Observer.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Observer receives one call per proxied request.
type Observer interface {
	ObserveProxy(proxy, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveProxy(string, string, time.Duration) {}
