// Package reconcile maps country name variants across datasets to one
// canonical name.
package reconcile

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Variants is the built-in WHO to common-name map.
var Variants = map[string]string{
	"Bolivia (Plurinational State of)":                     "Bolivia",
	"Brunei Darussalam":                                    "Brunei",
	"Czechia":                                              "Czech Republic",
	"Democratic People's Republic of Korea":                "North Korea",
	"Democratic Republic of the Congo":                     "DR Congo",
	"Iran (Islamic Republic of)":                           "Iran",
	"Lao People's Democratic Republic":                     "Laos",
	"Micronesia (Federated States of)":                     "Micronesia",
	"Republic of Korea":                                    "South Korea",
	"Republic of Moldova":                                  "Moldova",
	"Russian Federation":                                   "Russia",
	"Syrian Arab Republic":                                 "Syria",
	"Tanzania, United Republic of":                         "Tanzania",
	"United Republic of Tanzania":                          "Tanzania",
	"United Kingdom of Great Britain and Northern Ireland": "United Kingdom",
	"United States of America":                             "United States",
	"Venezuela (Bolivarian Republic of)":                   "Venezuela",
	"Viet Nam":                                             "Vietnam",
}

var foldCaser = cases.Fold()

// Fold lowercases, strips accents and collapses whitespace and punctuation
// so that "Côte d'Ivoire" and "cote d ivoire" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = foldCaser.String(out)

	var b strings.Builder
	space := false
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// Table resolves name variants to canonical names. Lookups are by folded key.
// The zero value is not usable; use New.
type Table struct {
	byKey map[string]string
}

// New builds a table from the built-in variants plus extra, which wins on
// conflicts.
func New(extra map[string]string) *Table {
	t := &Table{byKey: make(map[string]string, len(Variants)+len(extra))}
	for variant, canonical := range Variants {
		t.Add(variant, canonical)
	}
	for variant, canonical := range extra {
		t.Add(variant, canonical)
	}
	return t
}

// Add registers variant as a spelling of canonical. The canonical name also
// maps to itself.
func (t *Table) Add(variant, canonical string) {
	canonical = strings.TrimSpace(canonical)
	t.byKey[Fold(variant)] = canonical
	t.byKey[Fold(canonical)] = canonical
}

// Canonical returns the canonical display name for s. Unknown names are
// returned trimmed and unchanged, so Canonical(Canonical(x)) == Canonical(x).
func (t *Table) Canonical(s string) string {
	s = strings.TrimSpace(s)
	// Follow remappings left by later Add calls until a name maps to itself.
	for i := 0; i <= len(t.byKey); i++ {
		c, ok := t.byKey[Fold(s)]
		if !ok || c == s {
			return s
		}
		s = c
	}
	return s
}

// Key returns the folded join key for s.
func (t *Table) Key(s string) string {
	return Fold(t.Canonical(s))
}

// Len returns the number of registered keys.
func (t *Table) Len() int {
	return len(t.byKey)
}

// Pair is one matched name across two datasets.
type Pair struct {
	Canonical string   `json:"canonical"`
	Left      []string `json:"left"`
	Right     []string `json:"right"`
}

// Result is the outcome of Join.
type Result struct {
	Matched        []Pair   `json:"matched"`
	UnmatchedLeft  []string `json:"unmatched_left"`
	UnmatchedRight []string `json:"unmatched_right"`
}

// Join pairs the names of two datasets by canonical key. Names with no
// counterpart are listed rather than guessed at. Output is sorted.
func (t *Table) Join(left, right []string) Result {
	type side struct{ left, right map[string]bool }
	groups := make(map[string]*side)
	display := make(map[string]string)

	add := func(name string, isLeft bool) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		k := t.Key(name)
		g, ok := groups[k]
		if !ok {
			g = &side{left: map[string]bool{}, right: map[string]bool{}}
			groups[k] = g
			display[k] = t.Canonical(name)
		}
		if isLeft {
			g.left[name] = true
		} else {
			g.right[name] = true
		}
	}
	for _, n := range left {
		add(n, true)
	}
	for _, n := range right {
		add(n, false)
	}

	var res Result
	for k, g := range groups {
		switch {
		case len(g.left) > 0 && len(g.right) > 0:
			res.Matched = append(res.Matched, Pair{Canonical: display[k], Left: sortedKeys(g.left), Right: sortedKeys(g.right)})
		case len(g.left) > 0:
			res.UnmatchedLeft = append(res.UnmatchedLeft, sortedKeys(g.left)...)
		default:
			res.UnmatchedRight = append(res.UnmatchedRight, sortedKeys(g.right)...)
		}
	}
	sort.Slice(res.Matched, func(i, j int) bool { return res.Matched[i].Canonical < res.Matched[j].Canonical })
	sort.Strings(res.UnmatchedLeft)
	sort.Strings(res.UnmatchedRight)
	return res
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge collapses items whose names share a join key, folding them with
// combine in input order. Each group is keyed by the canonical name of its
// first item.
func Merge[T any](t *Table, items []T, name func(T) string, combine func(a, b T) T) map[string]T {
	out := make(map[string]T)
	display := make(map[string]string)
	for _, it := range items {
		k := t.Key(name(it))
		c, ok := display[k]
		if ok {
			out[c] = combine(out[c], it)
			continue
		}
		c = t.Canonical(name(it))
		display[k] = c
		out[c] = it
	}
	return out
}
