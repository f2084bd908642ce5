package evidence

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"visualverify/internal/verify"
)

const (
	// DefaultBingURL is the production Bing Search API host.
	DefaultBingURL = "https://api.bing.microsoft.com"

	bingQueryLimit = 100
)

// BingNews searches Bing News for articles matching the claim text.
type BingNews struct {
	*client
	apiKey string
}

var _ Provider = (*BingNews)(nil)

// NewBingNews builds the provider. An empty key yields a provider that always
// returns nothing.
func NewBingNews(apiKey string, opts ...Option) *BingNews {
	return &BingNews{
		client: newClient("bing", DefaultBingURL, opts),
		apiKey: strings.TrimSpace(apiKey),
	}
}

func (b *BingNews) Name() string { return b.name }

type newsResponse struct {
	Value []struct {
		URL           string `json:"url"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		DatePublished string `json:"datePublished"`
		Provider      []struct {
			Name string `json:"name"`
		} `json:"provider"`
	} `json:"value"`
}

// Search queries Bing News with the first 100 characters of the claim.
func (b *BingNews) Search(ctx context.Context, q Query) []verify.EvidenceItem {
	claim := strings.TrimSpace(q.Claim)
	if b.apiKey == "" || claim == "" {
		return nil
	}
	params := url.Values{}
	params.Set("q", truncateRunes(claim, bingQueryLimit))
	params.Set("count", strconv.Itoa(b.maxResults))
	header := http.Header{}
	header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	var payload newsResponse
	if err := b.getJSON(ctx, "/v7.0/news/search", params, header, &payload); err != nil {
		b.searchFailed(ctx, err)
		return nil
	}

	items := make([]verify.EvidenceItem, 0, len(payload.Value))
	for _, article := range payload.Value {
		if len(items) == b.maxResults {
			break
		}
		item := verify.EvidenceItem{
			URL:           article.URL,
			Title:         article.Name,
			Snippet:       article.Description,
			PublishedDate: article.DatePublished,
		}
		if len(article.Provider) > 0 {
			item.Source = article.Provider[0].Name
		}
		items = append(items, cleanItem(item))
	}
	return items
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
