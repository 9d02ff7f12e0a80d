package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISODate is the layout of every date this package returns
const ISODate = "2006-01-02"

var dateHints = []string{
	"date", "txn date", "transaction date", "billing date", "issued",
	"due date", "period", "period covered", "statement date",
}

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

type datePattern struct {
	re    *regexp.Regexp
	parse func(m []string) (time.Time, bool)
}

// datePatterns are tried in order against each line
var datePatterns = []datePattern{
	{
		re:    regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`),
		parse: func(m []string) (time.Time, bool) { return civilDate(m[1], m[2], m[3]) },
	},
	{
		re:    regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`),
		parse: func(m []string) (time.Time, bool) { return parseDayFirst(m[0]) },
	},
	{
		re:    regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2}),?\s+(\d{2,4})\b`),
		parse: func(m []string) (time.Time, bool) { return civilDate(m[3], monthNumber(m[1]), m[2]) },
	},
	{
		re:    regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthNames + `,?\s+(\d{2,4})\b`),
		parse: func(m []string) (time.Time, bool) { return civilDate(m[3], monthNumber(m[2]), m[1]) },
	},
}

// Date finds the transaction date. Lines mentioning a date keyword are tried
// first (and the line after each), then the whole text. It returns the ISO
// date or "" when nothing parses.
func Date(text string) string {
	lines := nonBlankLines(text)
	for i, line := range lines {
		if !containsAny(strings.ToLower(line), dateHints) {
			continue
		}
		look := []string{line}
		if i+1 < len(lines) {
			look = append(look, lines[i+1])
		}
		for _, l := range look {
			if d := firstDate(l); d != "" {
				return d
			}
		}
	}
	return firstDate(text)
}

// firstDate applies each pattern in turn and returns the first match that
// parses to a real calendar date
func firstDate(s string) string {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(s, -1) {
			if t, ok := p.parse(m); ok {
				return t.Format(ISODate)
			}
		}
	}
	return ""
}

// parseDayFirst reads ambiguous numeric dates as day/month/year, swapping to
// month/day when the day-first reading is impossible
func parseDayFirst(s string) (time.Time, bool) {
	s = strings.ReplaceAll(s, "-", "/")
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false), dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, false
	}
	return t, plausibleYear(t.Year())
}

// civilDate builds a date from its parts, rejecting overflow like Feb 30
func civilDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 100 {
		y += 2000
	}
	if !plausibleYear(y) || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

func plausibleYear(y int) bool {
	return y >= 1900 && y <= 2100
}

func monthNumber(name string) string {
	name = strings.ToLower(name)
	for i, prefix := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if strings.HasPrefix(name, prefix) {
			return strconv.Itoa(i + 1)
		}
	}
	return "0"
}

// ValidDate reports whether s is an ISO calendar date
func ValidDate(s string) bool {
	_, err := time.Parse(ISODate, s)
	return err == nil
}
