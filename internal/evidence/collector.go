package evidence

import (
	"context"
	"log/slog"
	"sync"

	"visualverify/internal/config"
	"visualverify/internal/logging"
	"visualverify/internal/verify"
)

// Collector runs providers concurrently and merges their results.
type Collector struct {
	providers []Provider
	enricher  *Enricher
	logger    *slog.Logger
}

// NewCollector builds a collector. enricher may be nil.
func NewCollector(logger *slog.Logger, enricher *Enricher, providers ...Provider) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Collector{
		providers: providers,
		enricher:  enricher,
		logger:    logging.NewComponentLogger(logger, "evidence"),
	}
}

// NewFromConfig wires every configured provider. Providers without keys are
// still registered; they return nothing until a key is configured.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Collector {
	p := cfg.Providers
	common := func(extra ...Option) []Option {
		opts := []Option{
			WithTimeout(cfg.ProviderTimeout()),
			WithLimiter(NewLimiter(p.RequestsPerMinute)),
			WithMaxResults(p.MaxResults),
			WithLogger(logger),
		}
		return append(opts, extra...)
	}

	providers := []Provider{
		NewSerpAPI(p.SerpAPIKey, common(WithBaseURL(p.SerpAPIURL))...),
		NewBingNews(p.BingAPIKey, common(WithBaseURL(p.BingURL))...),
	}
	if len(p.Feeds) > 0 {
		providers = append(providers, NewFeeds(p.Feeds, common()...))
	}
	var enricher *Enricher
	if p.EnrichPages {
		enricher = NewEnricher(cfg.Fetch.UserAgent, common()...)
	}
	return NewCollector(logger, enricher, providers...)
}

// Providers returns the registered provider names in merge order.
func (c *Collector) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect queries every provider and returns their items in provider order
// with duplicate URLs removed. It never fails; the result may be empty.
func (c *Collector) Collect(ctx context.Context, q Query) []verify.EvidenceItem {
	results := make([][]verify.EvidenceItem, len(c.providers))
	var wg sync.WaitGroup
	for i, p := range c.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Search(ctx, q)
		}()
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []verify.EvidenceItem
	for i, items := range results {
		for _, item := range items {
			item.URL = linkURL(item.URL)
			if item.URL != "" {
				if _, dup := seen[item.URL]; dup {
					continue
				}
				seen[item.URL] = struct{}{}
			}
			merged = append(merged, item)
		}
		c.logger.Debug("provider finished",
			logging.String(logging.FieldProvider, c.providers[i].Name()),
			logging.Int("items", len(items)),
		)
	}

	if c.enricher != nil && len(merged) > 0 {
		merged = c.enricher.Enrich(ctx, merged)
	}
	c.logger.Info("evidence collected",
		logging.Int("items", len(merged)),
		logging.Int("providers", len(c.providers)),
	)
	return merged
}
