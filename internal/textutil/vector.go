package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

var fillerWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "was": {}, "are": {}, "has": {}, "have": {}, "its": {},
	"into": {}, "after": {}, "over": {}, "near": {}, "shows": {}, "image": {},
	"photo": {}, "picture": {},
}

// Vector is a term-frequency vector.
type Vector struct {
	terms map[string]float64
	norm  float64
}

// NewVector builds a vector from text. It returns nil when no terms survive
// tokenization.
func NewVector(text string) *Vector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return newVector(counts)
}

func newVector(terms map[string]float64) *Vector {
	if len(terms) == 0 {
		return nil
	}
	var sum float64
	for _, w := range terms {
		sum += w * w
	}
	return &Vector{terms: terms, norm: math.Sqrt(sum)}
}

// Tokenize lowercases text and splits it into terms, dropping short tokens
// and filler words.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 3 {
			continue
		}
		if _, filler := fillerWords[token]; filler {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Len returns the number of distinct terms.
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Weighted returns a copy with every term multiplied by its weight. Terms
// missing from weights keep their count; terms weighted to zero are dropped.
func (v *Vector) Weighted(weights map[string]float64) *Vector {
	if v == nil || len(weights) == 0 {
		return v
	}
	out := make(map[string]float64, len(v.terms))
	for term, count := range v.terms {
		w := count
		if weight, ok := weights[term]; ok {
			w *= weight
		}
		if w == 0 {
			continue
		}
		out[term] = w
	}
	return newVector(out)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty.
func Cosine(a, b *Vector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(small.terms) > len(large.terms) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small.terms {
		dot += w * large.terms[term]
	}
	return dot / (a.norm * b.norm)
}

// Similarity is Cosine over unweighted vectors built from two strings.
func Similarity(a, b string) float64 {
	return Cosine(NewVector(a), NewVector(b))
}

// Corpus accumulates document frequencies across a batch of texts.
type Corpus struct {
	docs    int
	docFreq map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add counts each distinct term of v once.
func (c *Corpus) Add(v *Vector) {
	if c == nil || v == nil {
		return
	}
	c.docs++
	for term := range v.terms {
		c.docFreq[term]++
	}
}

// IDF returns smoothed inverse document frequencies, or nil for an empty corpus.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docs == 0 {
		return nil
	}
	n := float64(c.docs)
	idf := make(map[string]float64, len(c.docFreq))
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
