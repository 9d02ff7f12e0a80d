package brands

import (
	"regexp"
	"strings"
)

var (
	glyphReplacer = strings.NewReplacer(
		"¢", "7",
		"€", "C",
		"—", "-",
		"–", "-",
		"_", "-",
		"~", "-",
		"|", "I",
		"0/", "Q",
	)

	reElevenTypos  = regexp.MustCompile(`ELEWE(?:M|OD|N+)`)
	reElevenRepeat = regexp.MustCompile(`ELEVEN{2,}`)
	reSevenEleven  = regexp.MustCompile(`\b7\s*-?\s*ELEVEN\b`)
	reSpaces       = regexp.MustCompile(`\s+`)

	// address and register metadata that follows the merchant name
	reBreak = regexp.MustCompile(`(?i)\b(?:branch|tin|vat|address|add\.?|tel|contact|phone|no\.?|receipt|invoice|official|cashier|terminal|store no\.?)\b`)

	reLegalSuffix = regexp.MustCompile(`\b(?:CORPORATION|CORP|INCORPORATED|INC|COMPANY|CO|LIMITED|LTD)\b\.?`)
)

// edgeJunk is trimmed from both ends once the name has been cut down
const edgeJunk = " -,.:&|/"

// sanitize uppercases and repairs common OCR glyph confusions
func sanitize(s string) string {
	s = strings.ToUpper(s)
	s = glyphReplacer.Replace(s)
	s = reElevenTypos.ReplaceAllString(s, "ELEVEN")
	s = reElevenRepeat.ReplaceAllString(s, "ELEVEN")
	s = reSevenEleven.ReplaceAllString(s, "7-ELEVEN")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Normalize cleans a raw store string into a comparable merchant name. It keeps
// the first line, repairs OCR glyphs, cuts at address metadata and strips legal
// suffixes. Normalize is pure and Normalize(Normalize(s)) == Normalize(s).
func Normalize(store string) string {
	if i := strings.IndexAny(store, "\r\n"); i >= 0 {
		store = store[:i]
	}

	// removing a suffix can expose a new glyph fix ("7 CO ELEVEN"), so run
	// the pass to a fixed point
	s := store
	for range 8 {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(store string) string {
	s := sanitize(store)
	if loc := reBreak.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = reLegalSuffix.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, edgeJunk)
}
