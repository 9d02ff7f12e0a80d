package scanning

import (
	"regexp"
	"strings"
)

var (
	reDateish   = regexp.MustCompile(`\b\d{1,4}[-/]\d{1,2}[-/]\d{2,4}\b|\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}\b`)
	reCurrency  = regexp.MustCompile(`\b(php|usd|peso)\b|[₱$]`)
	reAmountish = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
	reTotalish  = regexp.MustCompile(`\b(total|amount due|balance)\b`)
)

// HeuristicConfidence scores 0-100 from how receipt-like the text looks. It is
// used for providers that do not report their own confidence.
func HeuristicConfidence(text string) float64 {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return 0
	}

	score := 20.0
	if reDateish.MatchString(lower) {
		score += 20
	}
	if reCurrency.MatchString(lower) {
		score += 15
	}
	if reAmountish.MatchString(lower) {
		score += 15
	}
	if reTotalish.MatchString(lower) {
		score += 10
	}
	if len(text) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
