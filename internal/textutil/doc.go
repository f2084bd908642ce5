// Package textutil scores how closely two pieces of text overlap.
//
// Text is reduced to a term vector (lowercased alphanumeric tokens of three
// or more characters, minus common English filler words). Vectors can be
// reweighted with inverse document frequencies gathered from a Corpus so that
// words shared by every candidate stop dominating the score. Evidence
// providers use this to rank feed entries against a user's claim.
package textutil
