package verify_test

import (
	"testing"

	"visualverify/internal/verify"
)

func TestSynthesizeTrue(t *testing.T) {
	verdict, confidence, explanation := verify.Synthesize(nil, verify.Context{SourceCount: 3, AverageCredibility: 0.95})
	if verdict != verify.VerdictTrue || confidence != 0.85 {
		t.Fatalf("got %s %v", verdict, confidence)
	}
	if explanation != "Found 3 credible sources supporting this image and claim." {
		t.Fatalf("unexpected explanation %q", explanation)
	}
}

func TestSynthesizeUnverifiedThresholds(t *testing.T) {
	cases := []verify.Context{
		{SourceCount: 2, AverageCredibility: 0.95},
		{SourceCount: 5, AverageCredibility: 0.7},
		{SourceCount: 0, AverageCredibility: 0.5},
	}
	for _, real := range cases {
		verdict, confidence, _ := verify.Synthesize(nil, real)
		if verdict != verify.VerdictUnverified || confidence != 0.4 {
			t.Fatalf("%+v: got %s %v", real, verdict, confidence)
		}
	}
}

func TestSynthesizePicksHighestConfidence(t *testing.T) {
	issues := []verify.Issue{
		{Kind: verify.IssueMisleading, Confidence: 0.65, Detail: "events"},
		{Kind: verify.IssueFalseLocation, Confidence: 0.75, Detail: "places"},
	}
	verdict, confidence, explanation := verify.Synthesize(issues, verify.Context{})
	if verdict != verify.VerdictFalseLocation || confidence != 0.75 {
		t.Fatalf("got %s %v", verdict, confidence)
	}
	if explanation != "FALSE LOCATION: places" {
		t.Fatalf("unexpected explanation %q", explanation)
	}
}

func TestSynthesizeTieKeepsDetectionOrder(t *testing.T) {
	issues := []verify.Issue{
		{Kind: verify.IssueRecycled, Confidence: 0.5, Detail: "first"},
		{Kind: verify.IssueMisleading, Confidence: 0.5, Detail: "second"},
	}
	verdict, _, explanation := verify.Synthesize(issues, verify.Context{})
	if verdict != verify.VerdictRecycled || explanation != "OLD IMAGE REUSED: first" {
		t.Fatalf("got %s %q", verdict, explanation)
	}
}
