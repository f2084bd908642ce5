// Package credibility scores evidence sources against a static reputation
// table of news and fact-checking domains.
package credibility

import "strings"

// DefaultScore is returned for sources that match no known domain.
const DefaultScore = 0.5

// Domain pairs a domain with its trust score.
type Domain struct {
	Name  string  `json:"domain"`
	Score float64 `json:"score"`
}

// table is checked in order; the first domain contained in the input wins.
var table = []Domain{
	{Name: "reuters.com", Score: 0.95},
	{Name: "bbc.com", Score: 0.93},
	{Name: "apnews.com", Score: 0.95},
	{Name: "nytimes.com", Score: 0.90},
	{Name: "theguardian.com", Score: 0.90},
	{Name: "aljazeera.com", Score: 0.85},
	{Name: "cnn.com", Score: 0.82},
	{Name: "nbcnews.com", Score: 0.82},
	{Name: "snopes.com", Score: 0.90},
}

// Score returns the trust score for a URL or bare domain.
func Score(source string) float64 {
	lowered := strings.ToLower(source)
	for _, domain := range table {
		if strings.Contains(lowered, domain.Name) {
			return domain.Score
		}
	}
	return DefaultScore
}

// Known reports whether the source matches an entry in the table.
func Known(source string) bool {
	lowered := strings.ToLower(source)
	for _, domain := range table {
		if strings.Contains(lowered, domain.Name) {
			return true
		}
	}
	return false
}

// Domains returns a copy of the reputation table in match order.
func Domains() []Domain {
	out := make([]Domain, len(table))
	copy(out, table)
	return out
}
