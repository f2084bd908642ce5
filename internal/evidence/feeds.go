package evidence

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"visualverify/internal/extract"
	"visualverify/internal/textutil"
	"visualverify/internal/verify"
)

// Feeds searches a fixed set of RSS/Atom feeds for entries that mention a
// place or event named in the claim.
type Feeds struct {
	*client
	urls []string
}

var _ Provider = (*Feeds)(nil)

// NewFeeds builds the provider over the supplied feed URLs.
func NewFeeds(urls []string, opts ...Option) *Feeds {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return &Feeds{client: newClient("feeds", "", opts), urls: cleaned}
}

func (f *Feeds) Name() string { return f.name }

type feedCandidate struct {
	item   verify.EvidenceItem
	vector *textutil.Vector
	score  float64
}

// Search returns matching feed entries ranked by term overlap with the claim.
func (f *Feeds) Search(ctx context.Context, q Query) []verify.EvidenceItem {
	claim := strings.TrimSpace(q.Claim)
	if claim == "" || len(f.urls) == 0 {
		return nil
	}
	terms := claimTerms(claim)
	if len(terms) == 0 {
		return nil
	}

	parser := gofeed.NewParser()
	var candidates []feedCandidate
	for _, feedURL := range f.urls {
		feed, err := f.fetch(ctx, parser, feedURL)
		if err != nil {
			f.searchFailed(ctx, fmt.Errorf("feed %s: %w", feedURL, err))
			continue
		}
		for _, entry := range feed.Items {
			item := cleanItem(feedItem(feed, entry))
			text := strings.ToLower(item.Title + " " + item.Snippet)
			if !mentionsAny(text, terms) {
				continue
			}
			candidates = append(candidates, feedCandidate{item: item, vector: textutil.NewVector(item.Title + " " + item.Snippet)})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	corpus := textutil.NewCorpus()
	for _, c := range candidates {
		corpus.Add(c.vector)
	}
	idf := corpus.IDF()
	claimVec := textutil.NewVector(claim).Weighted(idf)
	for i := range candidates {
		candidates[i].score = textutil.Cosine(claimVec, candidates[i].vector.Weighted(idf))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := min(len(candidates), f.maxResults)
	items := make([]verify.EvidenceItem, 0, limit)
	for _, c := range candidates[:limit] {
		items = append(items, c.item)
	}
	return items
}

func (f *Feeds) fetch(ctx context.Context, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return parser.Parse(resp.Body)
}

func feedItem(feed *gofeed.Feed, entry *gofeed.Item) verify.EvidenceItem {
	item := verify.EvidenceItem{
		URL:     entry.Link,
		Title:   entry.Title,
		Snippet: entry.Description,
		Source:  feed.Title,
	}
	if item.Snippet == "" {
		item.Snippet = entry.Content
	}
	switch {
	case entry.PublishedParsed != nil:
		item.PublishedDate = entry.PublishedParsed.UTC().Format(time.RFC3339)
	case entry.UpdatedParsed != nil:
		item.PublishedDate = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		item.PublishedDate = entry.Published
	}
	return item
}

// claimTerms returns the lowercased locations and events named in the claim.
func claimTerms(claim string) []string {
	ctx := extract.Extract(claim)
	terms := make([]string, 0, len(ctx.Locations)+len(ctx.Events))
	for _, loc := range ctx.Locations {
		terms = append(terms, strings.ToLower(loc))
	}
	for _, ev := range ctx.Events {
		terms = append(terms, strings.ToLower(ev))
	}
	return terms
}

func mentionsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
