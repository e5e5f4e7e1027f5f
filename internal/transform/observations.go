package transform

import (
	"sort"

	"github.com/vizwizards/lifeviz/internal/record"
)

// ObservationFilter narrows WHO observations. Zero fields match everything.
type ObservationFilter struct {
	Indicator string
	Year      int
	Sex       record.Sex
	Selection Selection
}

// Filter returns the observations that match f.
func (f ObservationFilter) Filter(obs []record.Observation) []record.Observation {
	var out []record.Observation
	for _, o := range obs {
		if f.Indicator != "" && o.Indicator != f.Indicator {
			continue
		}
		if f.Year != 0 && o.Period != f.Year {
			continue
		}
		if f.Sex != "" && o.Sex != f.Sex {
			continue
		}
		if !f.Selection.InRegion(o.ParentLocation) || !f.Selection.HasCountry(o.Location) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Years returns the distinct periods in obs, ascending.
func Years(obs []record.Observation) []int {
	return Keys(obs, func(o record.Observation) int { return o.Period })
}

// Regions returns the distinct non-empty parent locations, sorted.
func Regions(obs []record.Observation) []string {
	keys := Keys(obs, func(o record.Observation) string { return o.ParentLocation })
	if len(keys) > 0 && keys[0] == "" {
		keys = keys[1:]
	}
	return keys
}

// YearValue is one point of a yearly series.
type YearValue struct {
	Year int  `json:"year"`
	Stat Stat `json:"stat"`
}

// RegionalAverages returns the mean value per region and year.
func RegionalAverages(obs []record.Observation) map[string][]YearValue {
	groups := GroupBy(obs,
		func(o record.Observation) string { return o.ParentLocation },
		func(o record.Observation) int { return o.Period },
		func(o record.Observation) (float64, bool) { return o.Value, true })

	out := make(map[string][]YearValue)
	for _, g := range groups {
		if g.Outer == "" {
			continue
		}
		out[g.Outer] = append(out[g.Outer], YearValue{Year: g.Inner, Stat: g.Reduce(Mean)})
	}
	return out
}

// GlobalAverage returns the mean over all locations per year.
func GlobalAverage(obs []record.Observation) []YearValue {
	groups := GroupBy(obs,
		func(record.Observation) string { return "" },
		func(o record.Observation) int { return o.Period },
		func(o record.Observation) (float64, bool) { return o.Value, true })
	out := make([]YearValue, len(groups))
	for i, g := range groups {
		out[i] = YearValue{Year: g.Inner, Stat: g.Reduce(Mean)}
	}
	return out
}

// LowestN returns, per year, the n observations with the lowest values,
// ascending by value and then by location.
func LowestN(obs []record.Observation, n int) map[int][]record.Observation {
	byYear := make(map[int][]record.Observation)
	for _, o := range obs {
		byYear[o.Period] = append(byYear[o.Period], o)
	}
	for y, rows := range byYear {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Value != rows[j].Value {
				return rows[i].Value < rows[j].Value
			}
			return rows[i].Location < rows[j].Location
		})
		if len(rows) > n {
			rows = rows[:n]
		}
		byYear[y] = rows
	}
	return byYear
}

// SexRatio is the female-to-male ratio for one location and year.
type SexRatio struct {
	Location string `json:"location"`
	Code     string `json:"code,omitempty"`
	Year     int    `json:"year"`
	Female   Stat   `json:"female"`
	Male     Stat   `json:"male"`
	Ratio    Stat   `json:"ratio"`
}

// SexRatios pairs female and male values per location and year. Ratio is
// valid only when both sides are present and the male value is positive.
func SexRatios(obs []record.Observation) []SexRatio {
	type key struct {
		loc  string
		year int
	}
	idx := make(map[key]int)
	var out []SexRatio
	for _, o := range obs {
		if o.Sex != record.SexFemale && o.Sex != record.SexMale {
			continue
		}
		k := key{o.Location, o.Period}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, SexRatio{Location: o.Location, Code: o.Code, Year: o.Period})
		}
		if o.Sex == record.SexFemale {
			out[i].Female = Stat{Value: o.Value, Valid: true}
		} else {
			out[i].Male = Stat{Value: o.Value, Valid: true}
		}
	}
	for i := range out {
		r := &out[i]
		if r.Female.Valid && r.Male.Valid && r.Male.Value > 0 {
			r.Ratio = Stat{Value: r.Female.Value / r.Male.Value, Valid: true}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// HealthGap compares life expectancy with healthy life expectancy.
type HealthGap struct {
	Location       string  `json:"location"`
	ParentLocation string  `json:"parent_location"`
	LE             float64 `json:"le"`
	HLE            float64 `json:"hle"`
	Unhealthy      float64 `json:"unhealthy"`
}

// HealthGaps joins LE and HLE observations by location. HLE is clamped to LE
// and Unhealthy is max(LE-HLE, 0). Locations missing either value are left out.
func HealthGaps(le, hle []record.Observation) []HealthGap {
	hleBy := make(map[string]float64, len(hle))
	for _, o := range hle {
		hleBy[o.Location] = o.Value
	}
	var out []HealthGap
	seen := make(map[string]bool)
	for _, o := range le {
		h, ok := hleBy[o.Location]
		if !ok || seen[o.Location] {
			continue
		}
		seen[o.Location] = true
		if h > o.Value {
			h = o.Value
		}
		out = append(out, HealthGap{
			Location:       o.Location,
			ParentLocation: o.ParentLocation,
			LE:             o.Value,
			HLE:            h,
			Unhealthy:      o.Value - h,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Extremes holds the highest and lowest LE and HLE entries of one region.
type Extremes struct {
	Region    string    `json:"region"`
	HighestLE HealthGap `json:"highest_le"`
	LowestLE  HealthGap `json:"lowest_le"`
	HighestHL HealthGap `json:"highest_hle"`
	LowestHL  HealthGap `json:"lowest_hle"`
}

// RegionExtremes picks the LE and HLE extremes per region, sorted by region.
func RegionExtremes(gaps []HealthGap) []Extremes {
	by := make(map[string]*Extremes)
	var regions []string
	for _, g := range gaps {
		if g.ParentLocation == "" {
			continue
		}
		e, ok := by[g.ParentLocation]
		if !ok {
			e = &Extremes{Region: g.ParentLocation, HighestLE: g, LowestLE: g, HighestHL: g, LowestHL: g}
			by[g.ParentLocation] = e
			regions = append(regions, g.ParentLocation)
			continue
		}
		if g.LE > e.HighestLE.LE {
			e.HighestLE = g
		}
		if g.LE < e.LowestLE.LE {
			e.LowestLE = g
		}
		if g.HLE > e.HighestHL.HLE {
			e.HighestHL = g
		}
		if g.HLE < e.LowestHL.HLE {
			e.LowestHL = g
		}
	}
	sort.Strings(regions)
	out := make([]Extremes, len(regions))
	for i, r := range regions {
		out[i] = *by[r]
	}
	return out
}

// RadarIndicators are the four radar axes, in drawing order.
var RadarIndicators = []string{
	record.IndicatorLE,
	record.IndicatorLE60,
	record.IndicatorHALE,
	record.IndicatorHALE60,
}

// RadarRow is one country's values on the radar axes.
type RadarRow struct {
	Country string `json:"country"`
	Values  []Stat `json:"values"`
}

// RadarRows collects the radar indicators for each selected country, in
// selection order. Missing indicators are NoValue.
func RadarRows(obs []record.Observation, countries []string) []RadarRow {
	axis := make(map[string]int, len(RadarIndicators))
	for i, ind := range RadarIndicators {
		axis[ind] = i
	}
	rows := make([]RadarRow, len(countries))
	pos := make(map[string]int, len(countries))
	for i, c := range countries {
		rows[i] = RadarRow{Country: c, Values: make([]Stat, len(RadarIndicators))}
		pos[c] = i
	}
	for _, o := range obs {
		i, ok := pos[o.Location]
		if !ok {
			continue
		}
		a, ok := axis[o.Indicator]
		if !ok {
			continue
		}
		rows[i].Values[a] = Stat{Value: o.Value, Valid: true}
	}
	return rows
}
