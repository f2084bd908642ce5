package evidence_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualverify/internal/evidence"
)

func TestSerpAPISearchParsesVisualMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "google_lens", q.Get("engine"))
		assert.Equal(t, "https://img.example/flood.jpg", q.Get("url"))
		assert.Equal(t, "key", q.Get("api_key"))

		var matches []string
		for i := range 12 {
			matches = append(matches, fmt.Sprintf(`{"link":"https://news.example/%d","title":"<b>Flood</b> in Dhaka &amp; Chittagong","snippet":"  2017   monsoon ","source":"news.example"}`, i))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"visual_matches":[%s]}`, strings.Join(matches, ","))
	}))
	t.Cleanup(server.Close)

	provider := evidence.NewSerpAPI("key", evidence.WithBaseURL(server.URL))
	items := provider.Search(context.Background(), evidence.Query{ImageURL: "https://img.example/flood.jpg"})

	require.Len(t, items, 10)
	assert.Equal(t, "https://news.example/0", items[0].URL)
	assert.Equal(t, "Flood in Dhaka & Chittagong", items[0].Title)
	assert.Equal(t, "2017 monsoon", items[0].Snippet)
	assert.Equal(t, "news.example", items[0].Source)
	assert.Equal(t, "serpapi", provider.Name())
}

func TestSerpAPISkipsWithoutKeyOrImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Failf(t, "unexpected request", "request to %s", r.URL)
	}))
	t.Cleanup(server.Close)

	assert.Empty(t, evidence.NewSerpAPI("", evidence.WithBaseURL(server.URL)).
		Search(context.Background(), evidence.Query{ImageURL: "https://img.example/a.jpg"}))
	assert.Empty(t, evidence.NewSerpAPI("key", evidence.WithBaseURL(server.URL)).
		Search(context.Background(), evidence.Query{Claim: "flood"}))
}

func TestSerpAPIHTTPErrorYieldsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	items := evidence.NewSerpAPI("bad", evidence.WithBaseURL(server.URL)).
		Search(context.Background(), evidence.Query{ImageURL: "https://img.example/a.jpg"})
	assert.Empty(t, items)
}

func TestBingNewsSearch(t *testing.T) {
	claim := strings.Repeat("é", 150)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7.0/news/search", r.URL.Path)
		assert.Equal(t, "bing-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		assert.Equal(t, 100, len([]rune(r.URL.Query().Get("q"))))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[
			{"url":"https://www.reuters.com/a","name":"Earthquake in Turkey","description":"Rescue teams in Hatay","datePublished":"2023-02-06T10:00:00Z","provider":[{"name":"Reuters"}]},
			{"url":"https://www.bbc.com/b","name":"Aftershocks","description":"<p>More tremors</p>"}
		]}`))
	}))
	t.Cleanup(server.Close)

	items := evidence.NewBingNews("bing-key", evidence.WithBaseURL(server.URL)).
		Search(context.Background(), evidence.Query{Claim: claim})

	require.Len(t, items, 2)
	assert.Equal(t, "Earthquake in Turkey", items[0].Title)
	assert.Equal(t, "Rescue teams in Hatay", items[0].Snippet)
	assert.Equal(t, "2023-02-06T10:00:00Z", items[0].PublishedDate)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, "More tremors", items[1].Snippet)
}

func TestBingNewsSkipsWithoutClaim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Failf(t, "unexpected request", "request to %s", r.URL)
	}))
	t.Cleanup(server.Close)

	items := evidence.NewBingNews("key", evidence.WithBaseURL(server.URL)).
		Search(context.Background(), evidence.Query{ImageURL: "https://img.example/a.jpg", Claim: "  "})
	assert.Empty(t, items)
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>World Desk</title>
  <item>
    <title>Earthquake drill held in Tokyo</title>
    <link>https://desk.example/tokyo</link>
    <description>Annual preparedness exercise</description>
    <pubDate>Mon, 06 Feb 2023 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Stock markets rally</title>
    <link>https://desk.example/markets</link>
    <description>Shares rose</description>
  </item>
  <item>
    <title>Istanbul earthquake aftermath</title>
    <link>https://desk.example/istanbul</link>
    <description>&lt;p&gt;Damage across the city&lt;/p&gt;</description>
  </item>
</channel>
</rss>`

func TestFeedsMatchAndRankByClaim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(server.Close)

	provider := evidence.NewFeeds([]string{server.URL, " "})
	items := provider.Search(context.Background(), evidence.Query{Claim: "Earthquake damage in Istanbul"})

	require.Len(t, items, 2)
	assert.Equal(t, "https://desk.example/istanbul", items[0].URL)
	assert.Equal(t, "Damage across the city", items[0].Snippet)
	assert.Equal(t, "World Desk", items[0].Source)
	assert.Equal(t, "https://desk.example/tokyo", items[1].URL)
	assert.Equal(t, "2023-02-06T10:00:00Z", items[1].PublishedDate)
}

func TestFeedsSkipsBrokenFeeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	items := evidence.NewFeeds([]string{server.URL}).
		Search(context.Background(), evidence.Query{Claim: "Flood in Dhaka"})
	assert.Empty(t, items)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, evidence.NewLimiter(0))
	limiter := evidence.NewLimiter(60)
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
}
