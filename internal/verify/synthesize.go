package verify

import "fmt"

const (
	trueConfidence       = 0.85
	unverifiedConfidence = 0.4

	minCredibility = 0.7
	minSources     = 3
)

var explanationPrefix = map[IssueKind]string{
	IssueRecycled:      "OLD IMAGE REUSED: ",
	IssueFalseLocation: "FALSE LOCATION: ",
	IssueMisleading:    "MISLEADING CONTEXT: ",
}

// Synthesize reduces the issue list and evidence quality to a verdict.
// The highest-confidence issue wins; ties go to the earliest detected issue.
func Synthesize(issues []Issue, real Context) (Verdict, float64, string) {
	if len(issues) == 0 {
		if real.AverageCredibility > minCredibility && real.SourceCount >= minSources {
			return VerdictTrue, trueConfidence,
				fmt.Sprintf("Found %d credible sources supporting this image and claim.", real.SourceCount)
		}
		return VerdictUnverified, unverifiedConfidence,
			fmt.Sprintf("Insufficient evidence to verify (%d sources found).", real.SourceCount)
	}

	top := issues[0]
	for _, issue := range issues[1:] {
		if issue.Confidence > top.Confidence {
			top = issue
		}
	}
	return top.Kind.Verdict(), clamp(top.Confidence), explanationPrefix[top.Kind] + top.Detail
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
