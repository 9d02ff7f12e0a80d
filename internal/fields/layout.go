package fields

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

// Layout scoring weights
const (
	layoutKeywordWeight      = 1.2
	confidenceCeiling        = 95.0
	confidenceDivisor        = 25.0
	fontRatioThreshold       = 1.1
	fontBonusCeiling         = 2.5
	layoutPositionWeight     = 2.2
	proximityFloor           = -5.0
	gapCeiling               = 4.0
	layoutLowPriorityPenalty = 4.0
)

var reNotAmountChar = regexp.MustCompile(`[^0-9.,]`)

type box struct {
	left, top, right, bottom float64
}

func (b box) centerX() float64 { return (b.left + b.right) / 2 }
func (b box) centerY() float64 { return (b.top + b.bottom) / 2 }

type layoutToken struct {
	text   string
	conf   float64
	height float64
	box    box
}

type layoutLine struct {
	index        int
	text         string
	tokens       []layoutToken
	yMid, xMid   float64
	totalCenters []float64
	hasTotal     bool
}

type layoutCandidate struct {
	value     decimal.Decimal
	line      *layoutLine
	box       box
	avgHeight float64
	conf      float64
}

// TotalFromLayout picks the total using token geometry: amounts on or near a
// total keyword, in larger type, lower on the page score higher. It falls back
// to TotalFromText(fallbackText) when tokens yield no candidate.
func TotalFromLayout(tokens []scanning.Token, fallbackText string) *decimal.Decimal {
	lines, medianHeight := buildLines(tokens)

	var candidates []layoutCandidate
	for i := range lines {
		line := &lines[i]
		for _, m := range amountsIn(line.text) {
			subset := tokensForAmount(line.tokens, m.raw)
			if len(subset) == 0 {
				continue
			}
			candidates = append(candidates, newLayoutCandidate(m.value, line, subset))
		}
	}
	if len(candidates) == 0 {
		return TotalFromText(fallbackText)
	}

	var totalLines []*layoutLine
	for i := range lines {
		if lines[i].hasTotal {
			totalLines = append(totalLines, &lines[i])
		}
	}

	var (
		best      *layoutCandidate
		bestScore = math.Inf(-1)
	)
	for i := range candidates {
		c := &candidates[i]
		if s := scoreLayoutCandidate(c, len(lines), medianHeight, totalLines); s > bestScore {
			best, bestScore = c, s
		}
	}
	v := best.value
	return &v
}

type lineKey struct {
	block, par, line int
}

// buildLines groups tokens into reading-order lines and returns them with the
// median token height
func buildLines(tokens []scanning.Token) ([]layoutLine, float64) {
	groups := make(map[lineKey][]scanning.Token)
	var keys []lineKey
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		k := lineKey{t.BlockID, t.ParagraphID, t.LineID}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}

	minOf := func(ts []scanning.Token, f func(scanning.Token) int) int {
		m := f(ts[0])
		for _, t := range ts[1:] {
			m = min(m, f(t))
		}
		return m
	}
	slices.SortStableFunc(keys, func(a, b lineKey) int {
		ga, gb := groups[a], groups[b]
		return cmp.Or(
			cmp.Compare(minOf(ga, func(t scanning.Token) int { return t.Top }), minOf(gb, func(t scanning.Token) int { return t.Top })),
			cmp.Compare(minOf(ga, func(t scanning.Token) int { return t.Left }), minOf(gb, func(t scanning.Token) int { return t.Left })),
		)
	})

	var heights []float64
	lines := make([]layoutLine, 0, len(keys))
	for _, k := range keys {
		group := slices.Clone(groups[k])
		slices.SortStableFunc(group, func(a, b scanning.Token) int { return cmp.Compare(a.Left, b.Left) })

		line := layoutLine{index: len(lines)}
		texts := make([]string, 0, len(group))
		span := box{left: math.Inf(1), top: math.Inf(1), right: math.Inf(-1), bottom: math.Inf(-1)}
		for _, t := range group {
			lt := toLayoutToken(t)
			line.tokens = append(line.tokens, lt)
			texts = append(texts, lt.text)
			heights = append(heights, lt.height)

			span.left = min(span.left, lt.box.left)
			span.top = min(span.top, lt.box.top)
			span.right = max(span.right, lt.box.right)
			span.bottom = max(span.bottom, lt.box.bottom)

			if hasTotalKey(lt.text) {
				line.totalCenters = append(line.totalCenters, lt.box.centerX())
			}
		}
		line.text = strings.Join(texts, " ")
		line.yMid = span.centerY()
		line.xMid = span.centerX()
		line.hasTotal = hasTotalKey(line.text)
		lines = append(lines, line)
	}

	return lines, median(heights)
}

func toLayoutToken(t scanning.Token) layoutToken {
	w := float64(max(t.Width, 1))
	h := float64(max(t.Height, 1))
	conf := t.Confidence
	if math.IsNaN(conf) {
		conf = 0
	}
	return layoutToken{
		text:   strings.Join(strings.Fields(t.Text), " "),
		conf:   conf,
		height: h,
		box: box{
			left:   float64(t.Left),
			top:    float64(t.Top),
			right:  float64(t.Left) + w,
			bottom: float64(t.Top) + h,
		},
	}
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 1
	}
	s := slices.Clone(vs)
	slices.Sort(s)
	n := len(s)
	m := s[n/2]
	if n%2 == 0 {
		m = (s[n/2-1] + s[n/2]) / 2
	}
	if m <= 0 {
		return 1
	}
	return m
}

// tokensForAmount finds the tokens whose digits spell raw, left to right. OCR
// often splits "1,234.50" into several tokens.
func tokensForAmount(tokens []layoutToken, raw string) []layoutToken {
	digitTokens := func() []layoutToken {
		var out []layoutToken
		for _, t := range tokens {
			if strings.ContainsAny(t.text, "0123456789") {
				out = append(out, t)
			}
		}
		return out
	}

	target := reNotAmountChar.ReplaceAllString(raw, "")
	if target == "" {
		return digitTokens()
	}

	var (
		acc      string
		selected []layoutToken
	)
	for _, t := range tokens {
		cleaned := reNotAmountChar.ReplaceAllString(t.text, "")
		if cleaned == "" {
			continue
		}
		if next := acc + cleaned; strings.HasPrefix(target, next) {
			selected = append(selected, t)
			acc = next
			if acc == target {
				break
			}
		}
	}
	if len(selected) == 0 {
		return digitTokens()
	}
	return selected
}

func newLayoutCandidate(value decimal.Decimal, line *layoutLine, subset []layoutToken) layoutCandidate {
	b := subset[0].box
	var confSum, heightSum float64
	for _, t := range subset {
		b.left = min(b.left, t.box.left)
		b.top = min(b.top, t.box.top)
		b.right = max(b.right, t.box.right)
		b.bottom = max(b.bottom, t.box.bottom)
		confSum += t.conf
		heightSum += t.height
	}
	n := float64(len(subset))
	return layoutCandidate{
		value:     value,
		line:      line,
		box:       b,
		avgHeight: heightSum / n,
		conf:      confSum / n,
	}
}

func scoreLayoutCandidate(c *layoutCandidate, lineCount int, medianHeight float64, totalLines []*layoutLine) float64 {
	line := c.line

	score := totalishScore(line.text) * layoutKeywordWeight
	score += currencyScore(line.text)
	score += min(c.conf, confidenceCeiling) / confidenceDivisor

	if ratio := c.avgHeight / medianHeight; ratio > fontRatioThreshold {
		score += min(ratio-1, fontBonusCeiling)
	}

	score += positionBonus(line.index, lineCount, layoutPositionWeight)

	if len(totalLines) > 0 {
		best := proximityFloor
		for _, tl := range totalLines {
			best = max(best, proximity(c, tl, medianHeight))
		}
		score += best
	}

	if isLowPriority(line.text) {
		score -= layoutLowPriorityPenalty
	}
	return score
}

// proximity rewards candidates on, or just below, a keyword line and close to
// the keyword horizontally
func proximity(c *layoutCandidate, tl *layoutLine, medianHeight float64) float64 {
	var base float64
	switch d := absInt(c.line.index - tl.index); d {
	case 0:
		base = 6.0
	case 1:
		base = 4.5
	case 2:
		base = 3.0
	default:
		base = max(0, 3.0-0.7*float64(d))
	}

	vertGap := math.Abs(c.box.centerY()-tl.yMid) / medianHeight
	base -= min(vertGap, gapCeiling)

	centers := tl.totalCenters
	if len(centers) == 0 {
		centers = []float64{tl.xMid}
	}
	horizGap := math.Inf(1)
	for _, cx := range centers {
		horizGap = min(horizGap, math.Abs(c.box.centerX()-cx))
	}
	denom := max(c.box.right-c.box.left, medianHeight)
	base -= min(horizGap/denom, gapCeiling)

	return base
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
