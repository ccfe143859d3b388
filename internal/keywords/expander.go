// Package keywords turns a problem statement into the deduplicated query-term
// set that drives evidence collection.
package keywords

import (
	"strings"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// TermExtractor derives candidate search terms from free text. Any
// implementation — frequency-based, embedding-backed or LLM-backed — can be
// plugged in without touching pipeline logic.
type TermExtractor interface {
	Extract(text string) ([]string, error)
}

// Expander combines user-supplied keywords with extractor-derived terms.
type Expander struct {
	extractor  TermExtractor
	maxDerived int
	log        *logging.Logger
}

// NewExpander returns an Expander that keeps at most maxDerived derived terms
// on top of the user set.
func NewExpander(extractor TermExtractor, maxDerived int, log *logging.Logger) *Expander {
	return &Expander{
		extractor:  extractor,
		maxDerived: maxDerived,
		log:        log.With("component", "KeywordExpander"),
	}
}

// Expand returns the query-term set for a problem statement. User keywords
// are always included verbatim (trimmed, lowercased, deduplicated). An
// extractor failure falls back to the user set alone — it must never be the
// sole cause of a job failure.
func (e *Expander) Expand(p model.ProblemStatement) []string {
	seen := make(map[string]bool)
	terms := make([]string, 0, len(p.Keywords))

	for _, k := range p.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		terms = append(terms, k)
	}

	derived, err := e.extractor.Extract(p.Title + " " + p.Description)
	if err != nil {
		e.log.Warn("term extraction failed, using user keywords only", "err", err)
		return terms
	}

	added := 0
	for _, t := range derived {
		if added >= e.maxDerived {
			break
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
		added++
	}
	return terms
}
