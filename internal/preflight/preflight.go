package preflight

import (
	"context"

	"visualverify/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckAPIKey("SerpAPI", cfg.Providers.SerpAPIKey, "reverse image search disabled"),
		CheckAPIKey("Bing News", cfg.Providers.BingAPIKey, "news search disabled"),
	}
	for _, feed := range cfg.Providers.Feeds {
		results = append(results, CheckFeed(ctx, feed, cfg.Fetch.UserAgent))
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
