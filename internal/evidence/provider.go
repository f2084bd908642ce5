package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"visualverify/internal/logging"
	"visualverify/internal/verify"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxResults = 10
)

// Query is what a provider searches for.
type Query struct {
	ImageURL string
	Claim    string
}

// Provider is one evidence source.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) []verify.EvidenceItem
}

// Option configures an HTTP-backed provider.
type Option func(*client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the provider at a different API host.
func WithBaseURL(base string) Option {
	return func(c *client) {
		if base = strings.TrimSpace(base); base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithLimiter throttles outgoing requests. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *client) {
		c.limiter = l
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxResults caps the number of items a provider returns.
func WithMaxResults(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithLogger sets the logger used for provider failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewLimiter returns a limiter admitting perMinute requests per minute, or nil
// when perMinute is not positive.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// client holds the HTTP plumbing shared by the API providers.
type client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxResults int
	logger     *slog.Logger
}

func newClient(name, baseURL string, opts []Option) *client {
	c := &client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxResults: defaultMaxResults,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.String(logging.FieldProvider, name))
	return c
}

func (c *client) getJSON(ctx context.Context, path string, params url.Values, header http.Header, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d (latency=%v)", c.name, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *client) searchFailed(ctx context.Context, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "evidence search failed", "evidence_search_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "verification continues with fewer sources"),
		logging.String(logging.FieldErrorHint, "check the provider key and network access"),
	)
}
