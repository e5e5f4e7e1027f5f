package transform

import (
	"fmt"
	"sort"

	"github.com/vizwizards/lifeviz/internal/record"
)

// OtherLabel prefixes the bucket for countries outside a continent's top N.
const OtherLabel = "Other"

// Flow sink names for the CO2 alluvial chart.
const (
	SinkFossil  = "Fossil fuels"
	SinkLandUse = "Land-use change"
)

// Continents maps country join keys to continents.
type Continents map[string]string

// NewContinents indexes memberships by key(country). A nil key indexes
// names as written.
func NewContinents(ms []record.Membership, key func(string) string) Continents {
	c := make(Continents, len(ms))
	for _, m := range ms {
		c[joinKey(key, m.Country)] = m.Continent
	}
	return c
}

func joinKey(key func(string) string, name string) string {
	if key == nil {
		return name
	}
	return key(name)
}

// Segment is one named part of a stacked bar.
type Segment struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// StackRow is one continent's stacked bar.
type StackRow struct {
	Continent string    `json:"continent"`
	Segments  []Segment `json:"segments"`
	Total     float64   `json:"total"`
}

type entityValue struct {
	key   string
	name  string
	value float64
}

// byContinent buckets country emissions for one year. Aggregates and
// countries with no continent are skipped. Spellings sharing a join key are
// one country: the later row replaces the earlier value and the first
// spelling is kept for display.
func byContinent(es []record.Emission, cont Continents, key func(string) string, year int) map[string][]entityValue {
	out := make(map[string][]entityValue)
	seen := make(map[string]int)
	for _, e := range es {
		if e.Year != year || e.IsAggregate() {
			continue
		}
		k := joinKey(key, e.Entity)
		c, ok := cont[k]
		if !ok {
			continue
		}
		if i, ok := seen[k]; ok {
			out[c][i].value = e.Value
			continue
		}
		seen[k] = len(out[c])
		out[c] = append(out[c], entityValue{k, e.Entity, e.Value})
	}
	return out
}

// topN splits values into the n largest (descending, ties by name) and the
// sum of the rest.
func topN(vs []entityValue, n int) (top []entityValue, rest float64, restCount int) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].value != vs[j].value {
			return vs[i].value > vs[j].value
		}
		return vs[i].name < vs[j].name
	})
	if len(vs) <= n {
		return vs, 0, 0
	}
	for _, v := range vs[n:] {
		rest += v.value
	}
	return vs[:n], rest, len(vs) - n
}

// ContinentStacks builds one stacked bar per continent for year: the topN
// countries by value, then an "Other" segment for the remainder.
func ContinentStacks(es []record.Emission, cont Continents, key func(string) string, year, n int) []StackRow {
	buckets := byContinent(es, cont, key, year)
	names := make([]string, 0, len(buckets))
	for k := range buckets {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]StackRow, 0, len(names))
	for _, k := range names {
		top, rest, restCount := topN(buckets[k], n)
		row := StackRow{Continent: k}
		for _, t := range top {
			row.Segments = append(row.Segments, Segment{Name: t.name, Value: t.value})
			row.Total += t.value
		}
		if restCount > 0 {
			row.Segments = append(row.Segments, Segment{Name: OtherLabel, Value: rest})
			row.Total += rest
		}
		rows = append(rows, row)
	}
	return rows
}

// CO2Flow builds continent -> country -> source edges for year. Each
// continent keeps its topN countries by total emissions and folds the rest
// into "Other (<continent>)". Negative land-use values produce non-positive
// edges, which BuildFlow drops.
func CO2Flow(fossil, land []record.Emission, cont Continents, key func(string) string, year, n int) []FlowInput {
	fossilBy := byContinent(fossil, cont, key, year)
	landIdx := make(map[string]float64)
	for _, vs := range byContinent(land, cont, key, year) {
		for _, v := range vs {
			landIdx[v.key] = v.value
		}
	}

	continents := make([]string, 0, len(fossilBy))
	for k := range fossilBy {
		continents = append(continents, k)
	}
	sort.Strings(continents)

	var out []FlowInput
	for _, k := range continents {
		totals := make([]entityValue, 0, len(fossilBy[k]))
		fossilOf := make(map[string]float64)
		for _, v := range fossilBy[k] {
			fossilOf[v.key] = v.value
			totals = append(totals, entityValue{v.key, v.name, v.value + max(landIdx[v.key], 0)})
		}
		top, _, restCount := topN(totals, n)

		inTop := make(map[string]bool, len(top))
		for _, t := range top {
			inTop[t.key] = true
			out = append(out,
				FlowInput{Source: k, Target: t.name, Value: t.value},
				FlowInput{Source: t.name, Target: SinkFossil, Value: fossilOf[t.key]},
				FlowInput{Source: t.name, Target: SinkLandUse, Value: landIdx[t.key]})
		}
		if restCount == 0 {
			continue
		}
		other := fmt.Sprintf("%s (%s)", OtherLabel, k)
		var restFossil, restLand float64
		for _, t := range totals {
			if inTop[t.key] {
				continue
			}
			restFossil += fossilOf[t.key]
			restLand += max(landIdx[t.key], 0)
		}
		out = append(out,
			FlowInput{Source: k, Target: other, Value: restFossil + restLand},
			FlowInput{Source: other, Target: SinkFossil, Value: restFossil},
			FlowInput{Source: other, Target: SinkLandUse, Value: restLand})
	}
	return out
}

// Emitter is one country's fossil and land-use emissions.
type Emitter struct {
	Entity  string  `json:"entity"`
	Fossil  float64 `json:"fossil"`
	LandUse Stat    `json:"land_use"`
}

// TopEmitters returns the n countries with the largest fossil emissions in
// year, largest first. Land-use values join on key(entity).
func TopEmitters(fossil, land []record.Emission, key func(string) string, year, n int) []Emitter {
	landBy := make(map[string]float64)
	for _, e := range land {
		if e.Year == year {
			landBy[joinKey(key, e.Entity)] = e.Value
		}
	}
	var vs []entityValue
	seen := make(map[string]int)
	for _, e := range fossil {
		if e.Year != year || e.IsAggregate() {
			continue
		}
		k := joinKey(key, e.Entity)
		if i, ok := seen[k]; ok {
			vs[i].value = e.Value
			continue
		}
		seen[k] = len(vs)
		vs = append(vs, entityValue{k, e.Entity, e.Value})
	}
	top, _, _ := topN(vs, n)
	out := make([]Emitter, len(top))
	for i, t := range top {
		out[i] = Emitter{Entity: t.name, Fossil: t.value}
		if v, ok := landBy[t.key]; ok {
			out[i].LandUse = Stat{Value: v, Valid: true}
		}
	}
	return out
}

// DecadeValue is the mean of an entity's yearly values within one decade.
type DecadeValue struct {
	Entity string `json:"entity"`
	Decade int    `json:"decade"`
	Mean   Stat   `json:"mean"`
}

// DecadeAverages averages each entity's values per decade (1990 covers
// 1990-1999).
func DecadeAverages(es []record.Emission) []DecadeValue {
	groups := GroupBy(es,
		func(e record.Emission) string { return e.Entity },
		func(e record.Emission) int { return e.Year - ((e.Year%10)+10)%10 },
		func(e record.Emission) (float64, bool) { return e.Value, true })
	out := make([]DecadeValue, len(groups))
	for i, g := range groups {
		out[i] = DecadeValue{Entity: g.Outer, Decade: g.Inner, Mean: g.Reduce(Mean)}
	}
	return out
}
