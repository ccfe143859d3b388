package analyzer

import (
	"strings"
	"unicode"
)

// LexiconClassifier is the default rule-based sentiment classifier: an
// AFINN-style valence lexicon averaged over matched tokens and normalised to
// [-1, 1]. Text with no scored tokens is neutral (0).
type LexiconClassifier struct{}

// NewLexiconClassifier returns the default classifier.
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{}
}

func (c *LexiconClassifier) Score(text string) (float64, error) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	total := 0.0
	hits := 0
	for _, tok := range tokens {
		if v, ok := valence[tok]; ok {
			total += v
			hits++
		}
	}
	if hits == 0 {
		return 0, nil
	}

	// Valence entries span [-5, 5]; the mean divided by 5 lands in [-1, 1].
	score := total / float64(hits) / 5
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score, nil
}

// valence holds AFINN-165 entries pruned to terms common in product and
// startup discussions.
var valence = map[string]float64{
	"awesome": 4, "amazing": 4, "excellent": 3, "fantastic": 4, "great": 3,
	"love": 3, "loved": 3, "loves": 3, "perfect": 3, "best": 3,
	"good": 3, "better": 2, "helpful": 2, "useful": 2, "nice": 3,
	"easy": 1, "simple": 1, "works": 2, "working": 1, "win": 4,
	"happy": 3, "glad": 3, "excited": 3, "recommend": 2, "recommended": 2,
	"solved": 2, "solves": 2, "solution": 1, "improved": 2, "improvement": 2,
	"success": 2, "successful": 3, "like": 2, "likes": 2, "liked": 2,
	"worth": 2, "impressive": 3, "reliable": 2, "clean": 2, "fast": 1,
	"free": 1, "wish": 1, "hope": 2, "thanks": 2, "thank": 2,

	"awful": -3, "terrible": -3, "horrible": -3, "worst": -3, "bad": -3,
	"hate": -3, "hates": -3, "hated": -3, "poor": -2, "broken": -1,
	"breaks": -1, "bug": -1, "bugs": -1, "buggy": -2, "fails": -2,
	"fail": -2, "failed": -2, "failure": -2, "problem": -2, "problems": -2,
	"issue": -1, "issues": -1, "frustrating": -2, "frustrated": -2,
	"frustration": -2, "annoying": -2, "annoyed": -2, "pain": -2,
	"painful": -2, "struggle": -2, "struggling": -2, "difficult": -1,
	"hard": -1, "confusing": -2, "confused": -2, "expensive": -1,
	"waste": -1, "wasted": -2, "wasting": -2, "slow": -2, "useless": -2,
	"disappointed": -2, "disappointing": -2, "scam": -2, "avoid": -1,
	"wrong": -2, "stuck": -2, "impossible": -2, "lacking": -1,
	"missing": -1, "lost": -3, "cancel": -1, "cancelled": -1, "quit": -1,
}
