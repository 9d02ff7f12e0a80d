package brands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Spending categories, in keyword priority order
const (
	CategoryUtilities      = "Utilities"
	CategoryTransportation = "Transportation"
	CategoryHealth         = "Health & Wellness"
	CategoryGroceries      = "Groceries"
	CategoryFood           = "Food"
)

// Categories lists every category in the order rules are evaluated
var Categories = []string{
	CategoryUtilities,
	CategoryTransportation,
	CategoryHealth,
	CategoryGroceries,
	CategoryFood,
}

// Brand is a canonical brand with its category and known variants
type Brand struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Aliases  []string `json:"aliases,omitempty"`
}

type alias struct {
	from string
	to   string
}

// Dictionary is the read-only brand and keyword table. Build one with
// NewDictionary or Extend; it is never mutated afterwards and is safe to
// share between goroutines.
type Dictionary struct {
	entries  []Brand
	aliases  []alias
	keywords map[string][]string
	byName   map[string]int
}

// NewDictionary validates entries and keywords and builds a dictionary. Entries
// are grouped by category priority, keeping their relative order.
func NewDictionary(entries []Brand, keywords map[string][]string) (*Dictionary, error) {
	d := &Dictionary{
		keywords: make(map[string][]string, len(Categories)),
		byName:   make(map[string]int, len(entries)),
	}

	for _, cat := range Categories {
		for _, e := range entries {
			if e.Category != cat {
				continue
			}
			name := strings.ToUpper(strings.TrimSpace(e.Name))
			if name == "" {
				return nil, fmt.Errorf("brand with empty name in category %q", cat)
			}
			if _, dup := d.byName[name]; dup {
				return nil, fmt.Errorf("duplicate brand %q", name)
			}
			d.byName[name] = len(d.entries)
			d.entries = append(d.entries, Brand{Name: name, Category: cat, Aliases: slices.Clone(e.Aliases)})
			for _, a := range e.Aliases {
				from := Normalize(a)
				if from == "" {
					return nil, fmt.Errorf("alias %q of %q normalizes to nothing", a, name)
				}
				d.aliases = append(d.aliases, alias{from: from, to: name})
			}
		}
	}
	for _, e := range entries {
		if !slices.Contains(Categories, e.Category) {
			return nil, fmt.Errorf("brand %q has unknown category %q", e.Name, e.Category)
		}
	}

	for cat, kws := range keywords {
		if !slices.Contains(Categories, cat) {
			return nil, fmt.Errorf("keywords for unknown category %q", cat)
		}
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && !slices.Contains(d.keywords[cat], kw) {
				d.keywords[cat] = append(d.keywords[cat], kw)
			}
		}
	}

	return d, nil
}

// Entries returns a copy of all brands in evaluation order
func (d *Dictionary) Entries() []Brand {
	out := make([]Brand, len(d.entries))
	for i, e := range d.entries {
		out[i] = Brand{Name: e.Name, Category: e.Category, Aliases: slices.Clone(e.Aliases)}
	}
	return out
}

// Lookup finds a canonical brand by name
func (d *Dictionary) Lookup(name string) (Brand, bool) {
	i, ok := d.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Brand{}, false
	}
	return d.entries[i], true
}

// Keywords returns the lowercase keyword hints for a category
func (d *Dictionary) Keywords(category string) []string {
	return slices.Clone(d.keywords[category])
}

// Extension is the JSON shape accepted by LoadDictionary
type Extension struct {
	Brands   map[string][]string `json:"brands"`
	Aliases  map[string]string   `json:"aliases"`
	Keywords map[string][]string `json:"keywords"`
}

// Extend returns a new dictionary with the extension merged on top. Every
// alias must name a brand that exists after the merge.
func (d *Dictionary) Extend(ext Extension) (*Dictionary, error) {
	entries := d.Entries()
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Name] = i
	}

	// map iteration order is random; keep the merge deterministic
	for _, cat := range sortedKeys(ext.Brands) {
		for _, name := range ext.Brands[cat] {
			name = strings.ToUpper(strings.TrimSpace(name))
			if _, ok := index[name]; ok {
				continue
			}
			index[name] = len(entries)
			entries = append(entries, Brand{Name: name, Category: cat})
		}
	}
	for _, from := range sortedKeys(ext.Aliases) {
		to := strings.ToUpper(strings.TrimSpace(ext.Aliases[from]))
		i, ok := index[to]
		if !ok {
			return nil, fmt.Errorf("alias %q refers to unknown brand %q", from, to)
		}
		entries[i].Aliases = append(entries[i].Aliases, from)
	}

	keywords := make(map[string][]string, len(d.keywords))
	for cat, kws := range d.keywords {
		keywords[cat] = slices.Clone(kws)
	}
	for cat, kws := range ext.Keywords {
		keywords[cat] = append(keywords[cat], kws...)
	}

	return NewDictionary(entries, keywords)
}

// LoadDictionary reads a JSON extension and merges it into the default dictionary
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	var ext Extension
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ext); err != nil {
		return nil, fmt.Errorf("decoding brand dictionary: %w", err)
	}
	d, err := DefaultDictionary().Extend(ext)
	if err != nil {
		return nil, fmt.Errorf("extending brand dictionary: %w", err)
	}
	return d, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
