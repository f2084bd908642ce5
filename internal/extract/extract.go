package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxDates bounds the number of date candidates returned by Dates.
	MaxDates = 5
	// MaxLocations bounds the number of location candidates returned by Locations.
	MaxLocations = 8
)

var (
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
	monthYearPattern = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(20\d{2})\b`)
	// Word boundaries are checked by locationSpans so that accented letters
	// count as part of a word.
	locationPattern = regexp.MustCompile(`[A-Z][a-z]{2,}(?:\s+[A-Z][a-z]+)*`)
)

// locationStopwords are capitalized words common in headlines that never name a place.
var locationStopwords = map[string]struct{}{
	"The":      {},
	"This":     {},
	"That":     {},
	"Image":    {},
	"Photo":    {},
	"Video":    {},
	"People":   {},
	"When":     {},
	"Where":    {},
	"Breaking": {},
	"Watch":    {},
}

// eventVocabulary is matched as substrings of the lowercased text.
var eventVocabulary = []string{
	"flood",
	"earthquake",
	"fire",
	"protest",
	"war",
	"explosion",
	"hurricane",
	"attack",
	"riot",
	"crash",
	"pandemic",
	"election",
}

// Context is the structured result of running every extraction pass over a
// text blob.
type Context struct {
	Dates     []string `json:"dates"`
	Locations []string `json:"locations"`
	Events    []string `json:"events"`
}

// Extract runs the date, location, and event passes over text.
func Extract(text string) Context {
	return Context{
		Dates:     Dates(text),
		Locations: Locations(text),
		Events:    Events(text),
	}
}

// Dates returns bare years followed by "Month Year" phrases, capped at MaxDates.
func Dates(text string) []string {
	dates := make([]string, 0, MaxDates)
	for _, match := range yearPattern.FindAllStringSubmatch(text, -1) {
		dates = append(dates, match[1])
	}
	for _, match := range monthYearPattern.FindAllStringSubmatch(text, -1) {
		dates = append(dates, match[1]+" "+match[2])
	}
	if len(dates) > MaxDates {
		dates = dates[:MaxDates]
	}
	return dates
}

// Locations returns capitalized name candidates in first-occurrence order,
// skipping headline stopwords, capped at MaxLocations.
func Locations(text string) []string {
	matches := locationSpans(text)
	seen := make(map[string]struct{}, len(matches))
	locations := make([]string, 0, MaxLocations)
	for _, candidate := range matches {
		if _, stop := locationStopwords[candidate]; stop {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		locations = append(locations, candidate)
		if len(locations) == MaxLocations {
			break
		}
	}
	return locations
}

// locationSpans returns capitalized word runs that start and end on a word
// boundary. A run whose last word continues into a non-ASCII letter
// ("Montréal") is shortened to the words before it.
func locationSpans(text string) []string {
	var spans []string
	for offset := 0; offset < len(text); {
		loc := locationPattern.FindStringIndex(text[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if wordBefore(text, start) {
			_, size := utf8.DecodeRuneInString(text[start:])
			offset = start + size
			continue
		}
		for wordAfter(text, end) {
			cut := strings.LastIndexFunc(text[start:end], unicode.IsSpace)
			if cut < 0 {
				end = start
				break
			}
			end = start + len(strings.TrimRightFunc(text[start:start+cut], unicode.IsSpace))
		}
		if end > start {
			spans = append(spans, text[start:end])
			offset = end
			continue
		}
		offset += loc[1]
	}
	return spans
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func wordAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

// Events returns every vocabulary keyword contained in the lowercased text.
func Events(text string) []string {
	lowered := strings.ToLower(text)
	events := make([]string, 0, 2)
	for _, keyword := range eventVocabulary {
		if strings.Contains(lowered, keyword) {
			events = append(events, keyword)
		}
	}
	return events
}

// Vocabulary returns a copy of the event keyword list.
func Vocabulary() []string {
	out := make([]string, len(eventVocabulary))
	copy(out, eventVocabulary)
	return out
}

// Year parses the year from a date candidate. Bare years are parsed directly;
// "Month Year" phrases use their trailing token.
func Year(date string) (int, bool) {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return year, true
}
