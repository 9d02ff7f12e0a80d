package fields

import (
	"regexp"
	"strings"
)

const storeScanLines = 12

// skipStore marks header boilerplate that is never the merchant name
var skipStore = []string{
	"receipt", "invoice", "official", "sales", "or#", "tin", "vat", "pos", "cashier", "terminal",
}

var (
	reWordy       = regexp.MustCompile(`[A-Za-z][A-Za-z\-&' ]{2,}`)
	storeReplacer = strings.NewReplacer("|", "I", "0/", "Q")
)

// Store returns the first header line that looks like a merchant name, or ""
func Store(text string) string {
	lines := nonBlankLines(text)
	if len(lines) > storeScanLines {
		lines = lines[:storeScanLines]
	}

	for _, line := range lines {
		cand := strings.Trim(line, "-—:| ")
		if len(cand) < 3 {
			continue
		}
		if containsAny(strings.ToLower(cand), skipStore) {
			continue
		}
		if reWordy.MatchString(cand) {
			return strings.Join(strings.Fields(storeReplacer.Replace(cand)), " ")
		}
	}
	return ""
}
