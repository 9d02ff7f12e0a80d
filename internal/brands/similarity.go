package brands

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// homoglyphs maps characters OCR confuses with letters. Pairs run first.
var homoglyphs = strings.NewReplacer(
	"2I", "PI",
	"2L", "PL",
	"0", "O",
	"1", "I",
	"2", "Z",
	"3", "B",
	"4", "A",
	"5", "S",
	"6", "G",
	"7", "T",
	"8", "B",
	"9", "G",
	"@", "A",
	"$", "S",
	"€", "E",
	"£", "L",
	"¢", "C",
)

const prefixBonus = 0.05

// foldDiacritics turns "Ñ" into "N" and similar
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// matchKey reduces a store string to uppercase letters for fuzzy comparison
func matchKey(s string) string {
	s = sanitize(foldDiacritics(s))
	s = homoglyphs.Replace(s)

	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeftFunc(b.String(), func(r rune) bool {
		return r < 'A' || r > 'Z'
	})
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func sequenceRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// partialRatio is the best sequence ratio of the shorter string against every
// same-length window of the longer one
func partialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	short, long := chars(a), chars(b)
	m := difflib.NewMatcher(short, short)

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		m.SetSeq2(long[i : i+len(short)])
		best = max(best, m.Ratio())
		if best >= 0.995 {
			break
		}
	}
	return best
}

// Similarity scores two store strings in [0,1] after reducing both to match keys
func Similarity(a, b string) float64 {
	ka, kb := matchKey(a), matchKey(b)
	if ka == "" || kb == "" {
		return 0
	}

	dist := levenshtein.Distance(ka, kb, nil)
	lev := 1 - float64(dist)/float64(max(len(ka), len(kb)))

	score := max(lev, sequenceRatio(ka, kb), partialRatio(ka, kb))
	if strings.HasPrefix(ka, kb) || strings.HasPrefix(kb, ka) {
		score += prefixBonus
	}
	return min(score, 1.0)
}
