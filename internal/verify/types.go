package verify

import (
	"strings"

	"visualverify/internal/extract"
	"visualverify/internal/fingerprint"
)

// Verdict is the categorical outcome of a verification.
type Verdict string

const (
	VerdictTrue          Verdict = "TRUE"
	VerdictFalse         Verdict = "FALSE"
	VerdictRecycled      Verdict = "RECYCLED"
	VerdictMisleading    Verdict = "MISLEADING"
	VerdictFalseLocation Verdict = "FALSE_LOCATION"
	VerdictUnverified    Verdict = "UNVERIFIED"
	VerdictError         Verdict = "ERROR"
)

var verdicts = []Verdict{
	VerdictTrue,
	VerdictFalse,
	VerdictRecycled,
	VerdictMisleading,
	VerdictFalseLocation,
	VerdictUnverified,
	VerdictError,
}

// ParseVerdict converts a stored string back into a Verdict.
func ParseVerdict(raw string) (Verdict, bool) {
	normalized := Verdict(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range verdicts {
		if v == normalized {
			return v, true
		}
	}
	return "", false
}

// Flagged reports whether the verdict indicates the claim should not be trusted.
func (v Verdict) Flagged() bool {
	switch v {
	case VerdictFalse, VerdictRecycled, VerdictMisleading, VerdictFalseLocation:
		return true
	default:
		return false
	}
}

// IssueKind identifies the discrepancy check that produced an Issue. Each
// kind doubles as the verdict reported when that issue wins.
type IssueKind string

const (
	IssueRecycled      IssueKind = IssueKind(VerdictRecycled)
	IssueFalseLocation IssueKind = IssueKind(VerdictFalseLocation)
	IssueMisleading    IssueKind = IssueKind(VerdictMisleading)
)

// Verdict returns the verdict an issue of this kind produces.
func (k IssueKind) Verdict() Verdict {
	return Verdict(k)
}

// Issue is a single discrepancy between the real and claimed contexts.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	Confidence float64   `json:"confidence"`
	Detail     string    `json:"detail"`
}

// EvidenceItem is one external reference bearing on the image's origin.
type EvidenceItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	Source        string `json:"source,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// Context is an extracted context. SourceCount and AverageCredibility are
// only populated for the real context built by Aggregate.
type Context struct {
	Dates              []string `json:"dates"`
	Locations          []string `json:"locations"`
	Events             []string `json:"events"`
	SourceCount        int      `json:"sourceCount,omitempty"`
	AverageCredibility float64  `json:"averageCredibility,omitempty"`
	Text               string   `json:"text,omitempty"`
}

func contextFrom(ec extract.Context) Context {
	return Context{
		Dates:     ec.Dates,
		Locations: ec.Locations,
		Events:    ec.Events,
	}
}

// ClaimContext extracts the claim context from the user's claim text.
func ClaimContext(claim string) Context {
	ctx := contextFrom(extract.Extract(claim))
	ctx.Text = claim
	return ctx
}

// Result is the sole output of Verify.
type Result struct {
	Verdict      Verdict                  `json:"verdict"`
	Confidence   float64                  `json:"confidence"`
	Explanation  string                   `json:"explanation"`
	Fingerprint  *fingerprint.Fingerprint `json:"fingerprint,omitempty"`
	RealContext  Context                  `json:"realContext"`
	ClaimContext Context                  `json:"claimContext"`
	Evidence     []EvidenceItem           `json:"evidence"`
	Issues       []Issue                  `json:"issues"`
}

// CacheKey returns the content hash used to short-circuit repeat
// verifications of the same bytes. It is empty for ERROR results.
func (r Result) CacheKey() string {
	if r.Fingerprint == nil {
		return ""
	}
	return r.Fingerprint.ContentHash
}
