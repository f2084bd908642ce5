package testsupport

import (
	"path/filepath"
	"testing"

	"visualverify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Provider keys are cleared so tests never reach real services.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Providers.SerpAPIKey = ""
	cfgVal.Providers.BingAPIKey = ""
	cfgVal.Providers.RequestsPerMinute = 0
	cfgVal.Workflow.QueuePollInterval = 1
	cfgVal.Workflow.ErrorRetryInterval = 1

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithProviderURLs points SerpAPI and Bing at test servers and sets dummy keys.
func WithProviderURLs(serpURL, bingURL string) ConfigOption {
	return func(b *configBuilder) {
		if serpURL != "" {
			b.cfg.Providers.SerpAPIURL = serpURL
			b.cfg.Providers.SerpAPIKey = "serp-test"
		}
		if bingURL != "" {
			b.cfg.Providers.BingURL = bingURL
			b.cfg.Providers.BingAPIKey = "bing-test"
		}
	}
}

// WithFeeds configures RSS feed URLs on the test config.
func WithFeeds(feeds ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Providers.Feeds = feeds
	}
}

// WithAPIToken sets the API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
