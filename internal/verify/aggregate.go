package verify

import (
	"strings"

	"visualverify/internal/credibility"
	"visualverify/internal/extract"
)

// Fallback evidence used when no provider returned anything.
const (
	FallbackURL     = "https://example.com/article"
	FallbackTitle   = "No API keys configured - analysis limited"
	FallbackSnippet = "Configure SERPAPI_KEY or BING_API_KEY for full analysis"
	FallbackSource  = "system"
)

// FallbackEvidence returns the synthetic placeholder item.
func FallbackEvidence() EvidenceItem {
	return EvidenceItem{
		URL:     FallbackURL,
		Title:   FallbackTitle,
		Snippet: FallbackSnippet,
		Source:  FallbackSource,
	}
}

// IsFallback reports whether item is the synthetic placeholder.
func IsFallback(item EvidenceItem) bool {
	return item == FallbackEvidence()
}

// EnsureEvidence guarantees a non-empty evidence list. It returns the items
// unchanged together with their count, or the fallback item and a count of 0.
func EnsureEvidence(items []EvidenceItem) ([]EvidenceItem, int) {
	if len(items) > 0 {
		return items, len(items)
	}
	return []EvidenceItem{FallbackEvidence()}, 0
}

// Aggregate builds the real context from evidence. realCount is the number of
// caller-supplied items before any fallback was injected. The average
// credibility is taken over every item in items, placeholder included.
func Aggregate(items []EvidenceItem, realCount int) Context {
	parts := make([]string, 0, len(items))
	var total float64
	for _, item := range items {
		parts = append(parts, item.Title+" "+item.Snippet)
		total += credibility.Score(item.URL)
	}
	ctx := contextFrom(extract.Extract(strings.Join(parts, " ")))
	ctx.SourceCount = realCount
	ctx.AverageCredibility = total / float64(max(len(items), 1))
	return ctx
}
