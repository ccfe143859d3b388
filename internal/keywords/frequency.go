package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// FrequencyExtractor is the default rule-based TermExtractor: lowercase
// tokenization, stopword and short-token filtering, then the most frequent
// remaining tokens in descending count order (ties broken alphabetically).
type FrequencyExtractor struct {
	MinTokenLen int // tokens shorter than this are dropped (default 3)
	MaxTerms    int // upper bound on returned terms (default 10)
}

// NewFrequencyExtractor returns an extractor with the default limits.
func NewFrequencyExtractor() *FrequencyExtractor {
	return &FrequencyExtractor{MinTokenLen: 3, MaxTerms: 10}
}

func (f *FrequencyExtractor) Extract(text string) ([]string, error) {
	minLen := f.MinTokenLen
	if minLen <= 0 {
		minLen = 3
	}
	maxTerms := f.MaxTerms
	if maxTerms <= 0 {
		maxTerms = 10
	}

	counts := make(map[string]int)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if len(tok) < minLen || stopwords[tok] {
			continue
		}
		counts[tok]++
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}
	return terms, nil
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "this": true, "that": true, "with": true,
	"they": true, "them": true, "their": true, "theirs": true, "from": true,
	"been": true, "were": true, "which": true, "would": true, "could": true,
	"should": true, "there": true, "where": true, "when": true, "what": true,
	"will": true, "while": true, "about": true, "into": true, "more": true,
	"some": true, "such": true, "than": true, "then": true, "these": true,
	"those": true, "very": true, "also": true, "because": true, "does": true,
	"doing": true, "each": true, "few": true, "how": true, "its": true,
	"just": true, "most": true, "other": true, "over": true, "own": true,
	"same": true, "too": true, "who": true, "why": true, "your": true,
	"people": true, "need": true, "want": true, "like": true, "make": true,
	"many": true, "lot": true, "get": true, "use": true, "way": true,
}
