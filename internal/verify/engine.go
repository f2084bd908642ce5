package verify

import (
	"fmt"

	"visualverify/internal/fingerprint"
)

// MaxEvidence bounds the evidence list carried in a Result.
const MaxEvidence = 5

// Verify runs the full engine over already-fetched inputs. Evidence should
// already have passed through EnsureEvidence; an empty list is treated the
// same way. Verify never panics and never returns an error: failures are
// reported as an ERROR verdict.
func Verify(image []byte, claim string, evidence []EvidenceItem) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(fmt.Errorf("%v", r))
		}
	}()

	fp, err := fingerprint.Compute(image)
	if err != nil {
		return errorResult(err)
	}

	items, realCount := EnsureEvidence(evidence)
	if len(items) == 1 && IsFallback(items[0]) {
		realCount = 0
	}

	real := Aggregate(items, realCount)
	claimCtx := ClaimContext(claim)
	issues := Detect(real, claimCtx)
	verdict, confidence, explanation := Synthesize(issues, real)

	return Result{
		Verdict:      verdict,
		Confidence:   confidence,
		Explanation:  explanation,
		Fingerprint:  &fp,
		RealContext:  real,
		ClaimContext: claimCtx,
		Evidence:     truncate(items, MaxEvidence),
		Issues:       issues,
	}
}

// ErrorResult builds the ERROR verdict for a failed verification.
func ErrorResult(err error) Result {
	return errorResult(err)
}

func errorResult(err error) Result {
	return Result{
		Verdict:     VerdictError,
		Confidence:  0,
		Explanation: "Verification failed: " + err.Error(),
		Evidence:    []EvidenceItem{},
		Issues:      []Issue{},
	}
}

func truncate(items []EvidenceItem, n int) []EvidenceItem {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]EvidenceItem, len(items))
	copy(out, items)
	return out
}
