package fields

import (
	"math"

	"github.com/shopspring/decimal"
)

// Text-only scoring weights
const (
	nextLineTotalWeight    = 0.8
	nextLineCurrencyWeight = 0.4
	prevLineTotalWeight    = 0.6
	prevLineCurrencyWeight = 0.3
	textPositionWeight     = 2.0
	magnitudeCeiling       = 50000.0
	magnitudeDivisor       = 20000.0
	textLowPriorityPenalty = 3.0

	scoreEpsilon = 1e-6
)

var maxMagnitude = decimal.NewFromFloat(magnitudeCeiling)

// magnitudeBonus lightly prefers larger amounts without letting them dominate
func magnitudeBonus(v decimal.Decimal) float64 {
	return decimal.Min(v, maxMagnitude).InexactFloat64() / magnitudeDivisor
}

// positionBonus grows linearly from 0 on the first line to weight on the last
func positionBonus(idx, count int, weight float64) float64 {
	if count <= 1 {
		return weight
	}
	return weight * float64(idx) / float64(count-1)
}

// TotalFromText picks the most likely total from plain text. Tender and change
// lines are never considered. It returns nil when text has no amount.
func TotalFromText(text string) *decimal.Decimal {
	lines := nonBlankLines(text)

	// a keyword line without an amount lends its keyword score to the line below
	carried := make([]float64, len(lines))
	for i, line := range lines {
		if isLowPriority(line) || !hasTotalKey(line) || len(amountsIn(line)) > 0 {
			continue
		}
		if i+1 < len(lines) && !isLowPriority(lines[i+1]) {
			carried[i+1] = max(carried[i+1], totalishScore(line))
		}
	}

	var (
		best      *decimal.Decimal
		bestScore = math.Inf(-1)
	)
	for i, line := range lines {
		if isLowPriority(line) {
			continue
		}
		for _, m := range amountsIn(line) {
			if m.value.IsNegative() {
				continue
			}
			score := scoreTextCandidate(i, lines, m.value, carried[i])
			if score > bestScore+scoreEpsilon ||
				(math.Abs(score-bestScore) <= scoreEpsilon && m.value.GreaterThan(*best)) {
				v := m.value
				best, bestScore = &v, score
			}
		}
	}
	return best
}

func scoreTextCandidate(idx int, lines []string, value decimal.Decimal, carried float64) float64 {
	line := lines[idx]

	score := max(totalishScore(line), carried)
	score += currencyScore(line)

	// only the stronger neighbor counts, so a line between SUBTOTAL and
	// TOTAL does not outscore both
	var next, prev float64
	if idx+1 < len(lines) {
		next = nextLineTotalWeight*totalishScore(lines[idx+1]) + nextLineCurrencyWeight*currencyScore(lines[idx+1])
	}
	if idx > 0 {
		prev = prevLineTotalWeight*totalishScore(lines[idx-1]) + prevLineCurrencyWeight*currencyScore(lines[idx-1])
	}
	score += max(next, prev)

	score += positionBonus(idx, len(lines), textPositionWeight)
	score += magnitudeBonus(value)

	if isLowPriority(line) {
		score -= textLowPriorityPenalty
	}
	return score
}
