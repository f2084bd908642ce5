package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"visualverify/internal/logging"
	"visualverify/internal/verify"
)

const (
	defaultEnrichPages = 5
	maxPageBytes       = 1 << 20
)

// Enricher fills empty snippets from the Open Graph and meta description tags
// of the pages evidence items link to.
type Enricher struct {
	*client
	maxPages  int
	userAgent string
}

// NewEnricher builds an enricher that visits at most defaultEnrichPages pages
// per call.
func NewEnricher(userAgent string, opts ...Option) *Enricher {
	return &Enricher{
		client:    newClient("enricher", "", opts),
		maxPages:  defaultEnrichPages,
		userAgent: strings.TrimSpace(userAgent),
	}
}

// Enrich returns a copy of items with missing titles and snippets filled in
// where the linked page provides them. Failures leave the item unchanged.
func (e *Enricher) Enrich(ctx context.Context, items []verify.EvidenceItem) []verify.EvidenceItem {
	out := make([]verify.EvidenceItem, len(items))
	copy(out, items)
	visited := 0
	for i := range out {
		if visited == e.maxPages {
			break
		}
		if out[i].Snippet != "" || out[i].URL == "" || verify.IsFallback(out[i]) {
			continue
		}
		visited++
		meta, err := e.pageMeta(ctx, out[i].URL)
		if err != nil {
			e.logger.Debug("page enrichment skipped",
				logging.String("url", out[i].URL),
				logging.Error(err),
			)
			continue
		}
		if out[i].Title == "" {
			out[i].Title = meta.title
		}
		out[i].Snippet = meta.description
	}
	return out
}

type pageMeta struct {
	title       string
	description string
}

func (e *Enricher) pageMeta(ctx context.Context, pageURL string) (pageMeta, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return pageMeta{}, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return pageMeta{}, err
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return pageMeta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pageMeta{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse page: %w", err)
	}

	meta := pageMeta{
		title:       firstContent(doc, `meta[property="og:title"]`),
		description: firstContent(doc, `meta[property="og:description"]`, `meta[name="description"]`),
	}
	if meta.title == "" {
		meta.title = doc.Find("title").First().Text()
	}
	meta.title = cleanText(meta.title)
	meta.description = cleanText(meta.description)
	if meta.description == "" {
		return meta, fmt.Errorf("no description metadata")
	}
	return meta, nil
}

func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}
