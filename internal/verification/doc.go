// Package verification implements the workflow stage that turns a queued
// image URL and claim into a verdict.
//
// A run consults the verdict cache by URL, downloads the image, consults the
// cache again by content hash and perceptual near-duplicate, gathers evidence
// from the configured providers, and hands everything to the engine in
// internal/verify. Non-ERROR verdicts are written back to the cache. The same
// pipeline backs the one-shot CLI command through Verifier.Check.
package verification
