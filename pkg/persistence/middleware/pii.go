package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
)

// Mask replaces every match of a PII pattern.
const Mask = "***"

// DefaultPIIPatterns catch e-mail addresses and phone-like digit runs.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\+?\d[\d\s\-().]{7,}\d`,
}

type piiMiddleware struct {
	next         ports.SessionStore
	patterns     []*regexp.Regexp
	maskUserName bool
}

// PIIOption configures the PII middleware.
type PIIOption func(*piiMiddleware)

// WithMaskedDisplayName also replaces the stored display name.
func WithMaskedDisplayName() PIIOption {
	return func(m *piiMiddleware) {
		m.maskUserName = true
	}
}

// NewPIIMiddleware creates a middleware that masks pattern matches in transcript text before persisting.
// The caller's in-memory session is never modified.
func NewPIIMiddleware(patternStrings []string, opts ...PIIOption) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		m := &piiMiddleware{next: next, patterns: patterns}
		for _, opt := range opts {
			opt(m)
		}
		return m
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	cloned := session.Clone()
	for i := range cloned.Transcript {
		cloned.Transcript[i].Text = m.mask(cloned.Transcript[i].Text)
	}
	if m.maskUserName && cloned.DisplayName != "" {
		cloned.DisplayName = Mask
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
