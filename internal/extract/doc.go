// Package extract turns free text into a structured context of candidate
// dates, locations, and event tags.
//
// Extraction is a set of fixed regular expressions and lookup tables. There is
// no NER or geocoding: a "location" is any run of capitalized words that is
// not a generic headline word, and an "event" is a keyword from a small
// vocabulary found anywhere in the lowercased text.
//
// Each pass has its own cap:
//   - Dates: bare 20xx years first, then "Month 20xx" phrases, at most 5.
//   - Locations: deduplicated in first-occurrence order, at most 8.
//   - Events: vocabulary order, uncapped.
//
// All lookup tables are package-level and never mutated, so Extract is safe
// for concurrent use.
package extract
