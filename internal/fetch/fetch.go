package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"visualverify/internal/config"
	"visualverify/internal/services"
)

const (
	stageName = "fetch"

	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 20 << 20
)

// Client downloads image bytes over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New builds a download client. Non-positive limits fall back to defaults.
func New(timeout time.Duration, userAgent string, maxBytes int64, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  strings.TrimSpace(userAgent),
		maxBytes:   maxBytes,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from the fetch configuration section.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return New(0, "", 0, opts...)
	}
	return New(cfg.FetchTimeout(), cfg.Fetch.UserAgent, cfg.Fetch.MaxBytes, opts...)
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate url", "image url is required", nil)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate url", "invalid image url", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate url",
			fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate url", "image url has no host", nil)
	}
	return parsed, nil
}

// Download retrieves the image at rawURL. Bodies larger than the configured
// limit and empty bodies are rejected.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "build request", "", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "download",
			fmt.Sprintf("image host returned %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, tooLarge(c.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, tooLarge(c.maxBytes)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "download", "image host returned an empty body", nil)
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return services.Wrap(services.ErrValidation, stageName, "download",
		fmt.Sprintf("image exceeds %d bytes", limit), nil)
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, stageName, "download", "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrTransient, stageName, "download", "request failed", err)
}
