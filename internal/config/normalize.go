package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeFetch()
	c.normalizeCache()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("VISUALVERIFY_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Providers.SerpAPIKey = strings.TrimSpace(c.Providers.SerpAPIKey)
	if c.Providers.SerpAPIKey == "" {
		if value, ok := os.LookupEnv("SERPAPI_KEY"); ok {
			c.Providers.SerpAPIKey = strings.TrimSpace(value)
		}
	}
	c.Providers.BingAPIKey = strings.TrimSpace(c.Providers.BingAPIKey)
	if c.Providers.BingAPIKey == "" {
		if value, ok := os.LookupEnv("BING_API_KEY"); ok {
			c.Providers.BingAPIKey = strings.TrimSpace(value)
		}
	}
	c.Providers.SerpAPIURL = strings.TrimRight(strings.TrimSpace(c.Providers.SerpAPIURL), "/")
	if c.Providers.SerpAPIURL == "" {
		c.Providers.SerpAPIURL = defaultSerpAPIURL
	}
	c.Providers.BingURL = strings.TrimRight(strings.TrimSpace(c.Providers.BingURL), "/")
	if c.Providers.BingURL == "" {
		c.Providers.BingURL = defaultBingURL
	}
	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = defaultProviderTimeout
	}
	if c.Providers.RequestsPerMinute < 0 {
		c.Providers.RequestsPerMinute = 0
	}
	if c.Providers.MaxResults <= 0 {
		c.Providers.MaxResults = defaultMaxResults
	}
	feeds := make([]string, 0, len(c.Providers.Feeds))
	seen := make(map[string]struct{}, len(c.Providers.Feeds))
	for _, feed := range c.Providers.Feeds {
		feed = strings.TrimSpace(feed)
		if feed == "" {
			continue
		}
		if _, dup := seen[feed]; dup {
			continue
		}
		seen[feed] = struct{}{}
		feeds = append(feeds, feed)
	}
	c.Providers.Feeds = feeds
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = defaultFetchMaxBytes
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.NearDuplicateDistance < 0 {
		c.Cache.NearDuplicateDistance = 0
	}
	if c.Cache.TTLDays < 0 {
		c.Cache.TTLDays = 0
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
