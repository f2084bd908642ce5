package evidence_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualverify/internal/evidence"
	"visualverify/internal/testsupport"
	"visualverify/internal/verify"
)

type staticProvider struct {
	name  string
	items []verify.EvidenceItem
}

func (p staticProvider) Name() string { return p.name }

func (p staticProvider) Search(context.Context, evidence.Query) []verify.EvidenceItem {
	return p.items
}

func TestCollectorMergesInProviderOrderAndDedups(t *testing.T) {
	first := staticProvider{name: "a", items: []verify.EvidenceItem{
		{URL: "https://one.example", Title: "one"},
		{URL: "https://two.example", Title: "two"},
	}}
	second := staticProvider{name: "b", items: []verify.EvidenceItem{
		{URL: "https://two.example", Title: "two again"},
		{URL: "https://three.example", Title: "three"},
	}}
	empty := staticProvider{name: "c"}

	collector := evidence.NewCollector(nil, nil, first, second, empty)
	items := collector.Collect(context.Background(), evidence.Query{Claim: "x"})

	require.Len(t, items, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{items[0].Title, items[1].Title, items[2].Title})
	assert.Equal(t, []string{"a", "b", "c"}, collector.Providers())
}

func TestCollectorDropsNonHTTPLinks(t *testing.T) {
	provider := staticProvider{name: "a", items: []verify.EvidenceItem{
		{URL: "javascript:alert(1)", Title: "script"},
		{URL: "data:text/html,hi", Title: "data"},
		{URL: "HTTPS://ok.example/story", Title: "ok"},
	}}

	items := evidence.NewCollector(nil, nil, provider).Collect(context.Background(), evidence.Query{Claim: "x"})

	require.Len(t, items, 3)
	assert.Empty(t, items[0].URL)
	assert.Equal(t, "script", items[0].Title)
	assert.Empty(t, items[1].URL)
	assert.Equal(t, "HTTPS://ok.example/story", items[2].URL)
}

func TestCollectorWithNoProvidersReturnsEmpty(t *testing.T) {
	items := evidence.NewCollector(nil, nil).Collect(context.Background(), evidence.Query{})
	assert.Empty(t, items)
}

func TestEnricherFillsMissingSnippets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/og":
			_, _ = w.Write([]byte(`<html><head>
				<meta property="og:title" content="Hatay after the earthquake">
				<meta property="og:description" content="Photographs taken in February 2023">
			</head><body></body></html>`))
		case "/meta":
			_, _ = w.Write([]byte(`<html><head><title>Plain page</title>
				<meta name="description" content="Archive photo from 2015">
			</head></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	items := []verify.EvidenceItem{
		{URL: server.URL + "/og"},
		{URL: server.URL + "/meta", Title: "Kept title"},
		{URL: server.URL + "/missing"},
		{URL: server.URL + "/og", Title: "has snippet", Snippet: "already set"},
	}
	out := evidence.NewEnricher("").Enrich(context.Background(), items)

	require.Len(t, out, 4)
	assert.Equal(t, "Hatay after the earthquake", out[0].Title)
	assert.Equal(t, "Photographs taken in February 2023", out[0].Snippet)
	assert.Equal(t, "Kept title", out[1].Title)
	assert.Equal(t, "Archive photo from 2015", out[1].Snippet)
	assert.Empty(t, out[2].Snippet)
	assert.Equal(t, "already set", out[3].Snippet)
	assert.Empty(t, items[0].Snippet, "input must not be modified")
}

func TestNewFromConfigRegistersProviders(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds("https://feeds.example/rss"))
	collector := evidence.NewFromConfig(cfg, nil)
	assert.Equal(t, []string{"serpapi", "bing", "feeds"}, collector.Providers())

	cfg = testsupport.NewConfig(t)
	assert.Equal(t, []string{"serpapi", "bing"}, evidence.NewFromConfig(cfg, nil).Providers())
}
