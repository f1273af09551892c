package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/logging"
)

// maxUpstreamBody caps how much of an upstream response is read.
const maxUpstreamBody = 4 << 20

// ErrEmptyQuery is returned when a search request has no query.
var ErrEmptyQuery = errors.New("search query is empty")

// UpstreamError reports a non-2xx answer from the content API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// SearchRequest is the body accepted by the search proxy.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchConfig configures a SearchProxy.
type SearchConfig struct {
	// BaseURL is the full search endpoint; q and limit are added as query parameters.
	BaseURL string
	APIKey  string
	Limit   int
	Timeout time.Duration
}

// SearchProxy forwards queries to a third-party content API and passes its result array through.
type SearchProxy struct {
	cfg      SearchConfig
	client   *http.Client
	logger   *slog.Logger
	observer Observer
}

// SearchOption configures a SearchProxy.
type SearchOption func(*SearchProxy)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) SearchOption {
	return func(p *SearchProxy) {
		if c != nil {
			p.client = c
		}
	}
}

// WithSearchLogger sets the logger.
func WithSearchLogger(l *slog.Logger) SearchOption {
	return func(p *SearchProxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSearchObserver records request outcomes.
func WithSearchObserver(o Observer) SearchOption {
	return func(p *SearchProxy) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewSearchProxy builds a proxy.
func NewSearchProxy(cfg SearchConfig, opts ...SearchOption) *SearchProxy {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	p := &SearchProxy{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logging.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search queries the upstream API and returns its result array as raw JSON.
// The array is taken from the top level or from a "results", "items" or "data" field.
func (p *SearchProxy) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := req.Limit
	if limit <= 0 || limit > p.cfg.Limit {
		limit = p.cfg.Limit
	}

	start := time.Now()
	out, err := p.do(ctx, query, limit)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		p.logger.Warn("Search proxy failed", "err", err)
	}
	p.observer.ObserveProxy("search", outcome, time.Since(start))
	return out, err
}

func (p *SearchProxy) do(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	u, err := url.Parse(p.cfg.BaseURL)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("invalid search base url %q", p.cfg.BaseURL)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: snippet}
	}
	return extractArray(body)
}

func extractArray(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if !json.Valid(trimmed) {
			return nil, errors.New("search response is not valid JSON")
		}
		return json.RawMessage(trimmed), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("search response is not valid JSON: %w", err)
	}
	for _, key := range []string{"results", "items", "data"} {
		if raw, ok := obj[key]; ok {
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '[' {
				return raw, nil
			}
		}
	}
	return nil, errors.New("search response has no result array")
}
