package brands

import (
	"fmt"
	"strings"
)

// Reasons reported with a category
const (
	ReasonKeywords = "keywords"
	reasonBrandFmt = "brand:%s|score:%.3f"
)

// CategoryResult is the category and why it was chosen. Both are empty when
// no rule applied.
type CategoryResult struct {
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Categorizer assigns spending categories from a brand match or keywords
type Categorizer struct {
	matcher *Matcher
}

// NewCategorizer creates a categorizer using matcher for brand lookups
func NewCategorizer(matcher *Matcher) *Categorizer {
	if matcher == nil {
		matcher = NewMatcher(nil, 0)
	}
	return &Categorizer{matcher: matcher}
}

// Categorize prefers a confident brand match on store, then falls back to
// scanning text for category keywords in priority order.
func (c *Categorizer) Categorize(text, store string) CategoryResult {
	if m := c.matcher.Match(store); m.Matched() {
		return CategoryResult{
			Category: m.Category,
			Reason:   fmt.Sprintf(reasonBrandFmt, m.Brand, m.Score),
		}
	}

	lower := strings.ToLower(text)
	dict := c.matcher.Dictionary()
	for _, cat := range Categories {
		for _, kw := range dict.keywords[cat] {
			if strings.Contains(lower, kw) {
				return CategoryResult{Category: cat, Reason: ReasonKeywords}
			}
		}
	}
	return CategoryResult{}
}
