// Package evidence gathers external references that bear on where and when an
// image really originated.
//
// Each Provider adapts one source: SerpAPI's Google Lens reverse image
// search, Bing News search over the claim text, or a set of configured
// RSS/Atom feeds. Providers never fail past their boundary; a missing key,
// an HTTP error, or an unparseable response is logged and yields no items.
// The Collector fans out across providers, merges their items in provider
// order, and drops duplicate URLs. An optional Enricher fills in missing
// snippets from the linked pages' metadata.
//
// All text leaving this package is stripped of HTML and NFC normalized so
// the context extractor sees plain prose.
package evidence
