package verify

import (
	"fmt"
	"strings"

	"visualverify/internal/extract"
)

const (
	recycledConfidence      = 0.9
	falseLocationConfidence = 0.75
	misleadingConfidence    = 0.65

	// recycledYearGap is the number of years a claim may post-date the
	// evidence before the image is treated as recycled.
	recycledYearGap  = 1
	detailSampleSize = 3
)

// Detect compares the real and claimed contexts. Issues are returned in
// check order: temporal, location, event. A check only fires when both sides
// carry data for it.
func Detect(real, claim Context) []Issue {
	issues := make([]Issue, 0, 3)
	if issue, ok := temporalIssue(real, claim); ok {
		issues = append(issues, issue)
	}
	if issue, ok := locationIssue(real, claim); ok {
		issues = append(issues, issue)
	}
	if issue, ok := eventIssue(real, claim); ok {
		issues = append(issues, issue)
	}
	return issues
}

func temporalIssue(real, claim Context) (Issue, bool) {
	if len(real.Dates) == 0 || len(claim.Dates) == 0 {
		return Issue{}, false
	}
	realYear, ok := extract.Year(real.Dates[0])
	if !ok {
		return Issue{}, false
	}
	claimYear, ok := extract.Year(claim.Dates[0])
	if !ok {
		return Issue{}, false
	}
	if claimYear-realYear <= recycledYearGap {
		return Issue{}, false
	}
	return Issue{
		Kind:       IssueRecycled,
		Confidence: recycledConfidence,
		Detail:     fmt.Sprintf("Image from %d being shared as %d event", realYear, claimYear),
	}, true
}

func locationIssue(real, claim Context) (Issue, bool) {
	realLocs := lowerSet(real.Locations)
	claimLocs := lowerSet(claim.Locations)
	if len(realLocs) == 0 || len(claimLocs) == 0 || intersects(realLocs, claimLocs) {
		return Issue{}, false
	}
	return Issue{
		Kind:       IssueFalseLocation,
		Confidence: falseLocationConfidence,
		Detail:     fmt.Sprintf("Real: %s, Claimed: %s", formatList(head(realLocs, detailSampleSize)), formatList(head(claimLocs, detailSampleSize))),
	}, true
}

func eventIssue(real, claim Context) (Issue, bool) {
	realEvents := dedup(real.Events)
	claimEvents := dedup(claim.Events)
	if len(realEvents) == 0 || len(claimEvents) == 0 || intersects(realEvents, claimEvents) {
		return Issue{}, false
	}
	return Issue{
		Kind:       IssueMisleading,
		Confidence: misleadingConfidence,
		Detail:     fmt.Sprintf("Real event: %s, Claimed: %s", formatList(realEvents), formatList(claimEvents)),
	}, true
}

// lowerSet lowercases values and drops duplicates, keeping first occurrence order.
func lowerSet(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	return dedup(lowered)
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func formatList(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}
