// Package reconcile merges the fields extracted from several OCR sources into
// a single receipt, keeping track of which source the result came from.
package reconcile

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KenCariquitan/Receipt-Spendle/internal/brands"
	"github.com/KenCariquitan/Receipt-Spendle/internal/fields"
)

// Source tags that do not name a provider
const (
	SourceConsensus = "consensus"
	SourceUnknown   = "unknown"
)

// Candidate scoring weights
const (
	storeWeight          = 2.0
	totalWeight          = 3.5
	dateWeight           = 1.2
	confidenceCeiling    = 100.0
	confidenceDivisor    = 40.0
	priorityBonusCeiling = 3.0
)

var totalTolerance = decimal.RequireFromString("0.01")

// Candidate is the set of fields one source produced
type Candidate struct {
	Source     string           `json:"source"`
	Store      string           `json:"store,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Date       string           `json:"date,omitempty"`
	Confidence float64          `json:"confidence"`
	Priority   float64          `json:"priority"`
}

// Resolved is the merged receipt. Empty fields were not found by any source.
type Resolved struct {
	Store           string           `json:"store,omitempty"`
	StoreNormalized string           `json:"store_normalized,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	Date            string           `json:"date,omitempty"`
	SourceTag       string           `json:"source_tag"`
}

// Resolver scores and merges candidates. It holds only read-only
// configuration and is safe for concurrent use.
type Resolver struct {
	profiles map[string]Profile
	order    []string
}

// NewResolver creates a resolver. Nil arguments use DefaultProfiles and
// DefaultOrder.
func NewResolver(profiles map[string]Profile, order []string) *Resolver {
	if profiles == nil {
		profiles = DefaultProfiles
	}
	if order == nil {
		order = DefaultOrder
	}
	return &Resolver{
		profiles: maps.Clone(profiles),
		order:    slices.Clone(order),
	}
}

// Profile returns the profile for a source
func (r *Resolver) Profile(source string) Profile {
	if p, ok := r.profiles[source]; ok {
		return p
	}
	return unknownProfile
}

// Candidate builds a candidate from extracted fields, filling in the
// source's priority and, when conf is nil, its default confidence
func (r *Resolver) Candidate(source string, f fields.Fields, conf *float64) Candidate {
	p := r.Profile(source)
	c := Candidate{
		Source:     source,
		Store:      f.Store,
		Total:      f.Total,
		Date:       f.Date,
		Confidence: p.DefaultConfidence,
		Priority:   p.Priority,
	}
	if conf != nil {
		c.Confidence = *conf
	}
	return c
}

// Score rates how complete and trustworthy a candidate is
func (r *Resolver) Score(c Candidate) float64 {
	score := 0.0
	if c.Store != "" {
		score += storeWeight
	}
	if c.Total != nil {
		score += totalWeight
	}
	if c.Date != "" {
		score += dateWeight
	}
	score += min(c.Confidence, confidenceCeiling) / confidenceDivisor
	score += max(0, priorityBonusCeiling-c.Priority)
	if p, ok := r.profiles[c.Source]; ok {
		score += p.Bonus
	}
	return score
}

// Resolve picks the best candidate, tags the result as consensus when another
// source fully agrees with it, and back-fills missing fields from the other
// candidates by ascending priority. No candidates resolve to SourceUnknown.
func (r *Resolver) Resolve(candidates []Candidate) Resolved {
	if len(candidates) == 0 {
		return Resolved{SourceTag: SourceUnknown}
	}

	cands := make([]Candidate, len(candidates))
	for i, c := range candidates {
		cands[i] = clean(c)
	}
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		return r.Rank(a.Source) - r.Rank(b.Source)
	})

	best := 0
	bestScore := r.Score(cands[0])
	for i := 1; i < len(cands); i++ {
		if s := r.Score(cands[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	b := cands[best]

	res := Resolved{
		Store:     b.Store,
		Total:     b.Total,
		Date:      b.Date,
		SourceTag: b.Source,
	}
	for i, c := range cands {
		if i != best && agree(b, c) {
			res.SourceTag = SourceConsensus
			break
		}
	}

	byPriority := slices.Clone(cands)
	slices.SortStableFunc(byPriority, func(a, b Candidate) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		}
		return 0
	})
	for _, c := range byPriority {
		if res.Store == "" {
			res.Store = c.Store
		}
		if res.Total == nil {
			res.Total = c.Total
		}
		if res.Date == "" {
			res.Date = c.Date
		}
	}

	res.StoreNormalized = brands.Normalize(res.Store)
	return res
}

// Rank is the position of source in the evaluation order. Unknown sources
// rank last.
func (r *Resolver) Rank(source string) int {
	if i := slices.Index(r.order, source); i >= 0 {
		return i
	}
	return len(r.order)
}

// clean enforces the field invariants: trimmed store, non-negative total and
// a valid ISO date
func clean(c Candidate) Candidate {
	c.Store = strings.TrimSpace(c.Store)
	if c.Total != nil {
		if c.Total.IsNegative() {
			c.Total = nil
		} else {
			t := *c.Total
			c.Total = &t
		}
	}
	if c.Date != "" && !fields.ValidDate(c.Date) {
		c.Date = ""
	}
	return c
}

func agree(a, b Candidate) bool {
	return sameStore(a.Store, b.Store) && closeTotal(a.Total, b.Total) && a.Date != "" && a.Date == b.Date
}

func sameStore(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func closeTotal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Sub(*b).Abs().LessThanOrEqual(totalTolerance)
}
