// Package verify is the context-discrepancy engine. It decides whether an
// image and a claim agree by reconstructing the "real" context of the image
// from evidence and comparing it with the context extracted from the claim.
//
// The engine is a chain of pure functions:
//
//	Aggregate(evidence)      -> real Context (with source count and credibility)
//	extract.Extract(claim)   -> claim Context
//	Detect(real, claim)      -> []Issue
//	Synthesize(issues, real) -> verdict, confidence, explanation
//
// Verify wires them together with fingerprint.Compute and always returns a
// Result. A decode failure, or a panic anywhere in the chain, becomes an
// ERROR verdict with zero confidence.
//
// Callers own everything with side effects: downloading the image, querying
// evidence providers, and guaranteeing a non-empty evidence list via
// EnsureEvidence before calling Verify. Caching on Result.CacheKey is also a
// caller concern.
package verify
