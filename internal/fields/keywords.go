package fields

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// reAmount matches a money value with exactly two decimals, optionally
// prefixed by a peso marker. Group 1 is the number.
var reAmount = regexp.MustCompile(`(?:₱|PHP|Php|php)?\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2})|[0-9]+(?:\.[0-9]{2}))`)

var reCurrency = regexp.MustCompile(`(?i)(?:php|₱|peso|amount:)`)

// totalKeys mark the amount to pay
var totalKeys = []string{
	"grand total", "total amount due", "amount due", "total due",
	"total amount", "total payable", "amount payable", "balance due",
	"balance", "total", "amount to pay", "net amount due", "net amount",
	"total sales", "amount you owe",
}

var dueKeys = []string{"due", "payable", "amount due", "amount payable", "pay"}

// lowPriorityKeys mark tender and change lines, which carry amounts that are
// not the total
var lowPriorityKeys = []string{
	"cash", "cash tendered", "tendered", "payment", "paid", "change", "sukli",
}

func containsAny(lower string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func hasTotalKey(s string) bool {
	return containsAny(strings.ToLower(s), totalKeys)
}

func isLowPriority(s string) bool {
	return containsAny(strings.ToLower(s), lowPriorityKeys)
}

func totalishScore(s string) float64 {
	lower := strings.ToLower(s)
	score := 0.0
	if containsAny(lower, totalKeys) {
		score += 4.0
	}
	if containsAny(lower, dueKeys) {
		score += 1.5
	}
	return score
}

func currencyScore(s string) float64 {
	if reCurrency.MatchString(s) {
		return 1.0
	}
	return 0
}

type amountMatch struct {
	raw   string
	value decimal.Decimal
}

// amountsIn returns every money value in s, in order
func amountsIn(s string) []amountMatch {
	var out []amountMatch
	for _, m := range reAmount.FindAllStringSubmatch(s, -1) {
		v, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		out = append(out, amountMatch{raw: m[1], value: v})
	}
	return out
}

// nonBlankLines splits text into trimmed, non-empty lines
func nonBlankLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
