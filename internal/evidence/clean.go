package evidence

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"visualverify/internal/verify"
)

var stripPolicy = bluemonday.StrictPolicy()

// cleanText strips markup, unescapes entities, collapses whitespace, and
// NFC normalizes the result.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(stripPolicy.Sanitize(s))
	return norm.NFC.String(strings.Join(strings.Fields(stripped), " "))
}

func cleanItem(item verify.EvidenceItem) verify.EvidenceItem {
	item.URL = strings.TrimSpace(item.URL)
	item.Title = cleanText(item.Title)
	item.Snippet = cleanText(item.Snippet)
	item.Source = cleanText(item.Source)
	item.PublishedDate = strings.TrimSpace(item.PublishedDate)
	return item
}

// linkURL returns raw when it is an absolute http(s) URL and "" otherwise.
func linkURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return raw
	default:
		return ""
	}
}
