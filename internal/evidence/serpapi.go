package evidence

import (
	"context"
	"net/url"
	"strings"

	"visualverify/internal/verify"
)

// DefaultSerpAPIURL is the production SerpAPI host.
const DefaultSerpAPIURL = "https://serpapi.com"

// SerpAPI runs a Google Lens reverse image search through SerpAPI.
type SerpAPI struct {
	*client
	apiKey string
}

var _ Provider = (*SerpAPI)(nil)

// NewSerpAPI builds the provider. An empty key yields a provider that always
// returns nothing.
func NewSerpAPI(apiKey string, opts ...Option) *SerpAPI {
	return &SerpAPI{
		client: newClient("serpapi", DefaultSerpAPIURL, opts),
		apiKey: strings.TrimSpace(apiKey),
	}
}

func (s *SerpAPI) Name() string { return s.name }

type lensResponse struct {
	VisualMatches []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Source  string `json:"source"`
	} `json:"visual_matches"`
}

// Search looks up pages that contain the image at q.ImageURL.
func (s *SerpAPI) Search(ctx context.Context, q Query) []verify.EvidenceItem {
	imageURL := strings.TrimSpace(q.ImageURL)
	if s.apiKey == "" || imageURL == "" {
		return nil
	}
	params := url.Values{}
	params.Set("engine", "google_lens")
	params.Set("url", imageURL)
	params.Set("api_key", s.apiKey)

	var payload lensResponse
	if err := s.getJSON(ctx, "/search", params, nil, &payload); err != nil {
		s.searchFailed(ctx, err)
		return nil
	}

	items := make([]verify.EvidenceItem, 0, len(payload.VisualMatches))
	for _, match := range payload.VisualMatches {
		if len(items) == s.maxResults {
			break
		}
		items = append(items, cleanItem(verify.EvidenceItem{
			URL:     match.Link,
			Title:   match.Title,
			Snippet: match.Snippet,
			Source:  match.Source,
		}))
	}
	return items
}
