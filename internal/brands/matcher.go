package brands

import "strings"

// DefaultThreshold is the minimum fuzzy score accepted as a brand correction
const DefaultThreshold = 0.84

// minMatchLen keeps very short inputs like "SM" from matching inside or
// fuzzily against longer brand names
const minMatchLen = 4

// Match is the outcome of brand correction. Brand and Category are empty
// when no brand was accepted; Score still reports the best fuzzy score.
type Match struct {
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	Score    float64 `json:"score"`
}

// Matched reports whether a canonical brand was accepted
func (m Match) Matched() bool {
	return m.Brand != ""
}

// Matcher corrects OCR'd store names to canonical brands
type Matcher struct {
	dict      *Dictionary
	threshold float64
}

// NewMatcher creates a matcher over dict. A nil dict uses DefaultDictionary and a
// non-positive threshold uses DefaultThreshold.
func NewMatcher(dict *Dictionary, threshold float64) *Matcher {
	if dict == nil {
		dict = DefaultDictionary()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{dict: dict, threshold: threshold}
}

// Dictionary returns the dictionary the matcher reads
func (m *Matcher) Dictionary() *Dictionary {
	return m.dict
}

// Match normalizes store and resolves it by alias, then by containment, then
// by fuzzy similarity. It never fails; unmatched input yields an empty Match.
func (m *Matcher) Match(store string) Match {
	norm := Normalize(store)
	if norm == "" {
		return Match{}
	}

	for _, a := range m.dict.aliases {
		if strings.Contains(norm, a.from) {
			e := m.dict.entries[m.dict.byName[a.to]]
			return Match{Brand: e.Name, Category: e.Category, Score: 1.0}
		}
	}

	for _, e := range m.dict.entries {
		if strings.Contains(norm, e.Name) || (len(norm) >= minMatchLen && strings.Contains(e.Name, norm)) {
			return Match{Brand: e.Name, Category: e.Category, Score: 1.0}
		}
	}

	var (
		best      *Brand
		bestScore float64
	)
	for i := range m.dict.entries {
		if s := Similarity(norm, m.dict.entries[i].Name); s > bestScore {
			best, bestScore = &m.dict.entries[i], s
		}
	}
	if best == nil || bestScore < m.threshold || len(matchKey(norm)) < minMatchLen {
		return Match{Score: bestScore}
	}
	return Match{Brand: best.Name, Category: best.Category, Score: bestScore}
}
