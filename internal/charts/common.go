package charts

import (
	"fmt"
	"sort"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// Catalogue sizes.
const (
	TopPerContinent = 5
	TopEmitterCount = 10
	LowestPerYear   = 5
	RadarDefault    = 5
	axisTicks       = 8
)

const (
	highlight = "#f4a261"
	neutral   = "#bbb"
)

// lifeSlice returns the observations of indicator for sex, narrowed by the
// selected region and countries, across all years.
func lifeSlice(pc *pipeline.Context, indicator string, sex record.Sex) ([]record.Observation, error) {
	obs, err := pc.Observations(dataset.NameLife)
	if err != nil {
		return nil, err
	}
	return transform.ObservationFilter{Indicator: indicator, Sex: sex, Selection: pc.Selection}.Filter(obs), nil
}

// atYear keeps the rows of the selected year, or of the latest year when
// none is selected.
func atYear(pc *pipeline.Context, rows []record.Observation) ([]record.Observation, int, error) {
	year := pc.Selection.Year
	if year == 0 {
		years := transform.Years(rows)
		if len(years) == 0 {
			return nil, 0, pipeline.ErrNoData
		}
		year = years[len(years)-1]
	}
	var out []record.Observation
	for _, o := range rows {
		if o.Period == year {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, year, fmt.Errorf("year %d: %w", year, pipeline.ErrNoData)
	}
	return out, year, nil
}

// inYears keeps rows whose period lies in the selected range. Zero bounds
// are open.
func inYears(sel transform.Selection, rows []record.Observation) []record.Observation {
	var out []record.Observation
	for _, o := range rows {
		if sel.Year != 0 && o.Period < sel.Year {
			continue
		}
		if sel.EndYear != 0 && o.Period > sel.EndYear {
			continue
		}
		out = append(out, o)
	}
	return out
}

// emissionYear returns the selected year or the latest year in es.
func emissionYear(pc *pipeline.Context, es []record.Emission) (int, error) {
	if pc.Selection.Year != 0 {
		return pc.Selection.Year, nil
	}
	years := transform.Keys(es, func(e record.Emission) int { return e.Year })
	if len(years) == 0 {
		return 0, pipeline.ErrNoData
	}
	return years[len(years)-1], nil
}

// continents indexes the membership table by country join key,
// keeping only continents inside the selected region.
func continents(pc *pipeline.Context) (transform.Continents, error) {
	ms, err := pc.Memberships(dataset.NameContinents)
	if err != nil {
		return nil, err
	}
	all := transform.NewContinents(ms, pc.Key)
	out := make(transform.Continents, len(all))
	for c, k := range all {
		if pc.Selection.InRegion(k) {
			out[c] = k
		}
	}
	return out, nil
}

// populationAt returns each entity's population for the latest year not
// after year, keyed by folded canonical name and by code.
func populationAt(pc *pipeline.Context, year int) (map[string]float64, error) {
	ps, err := pc.Population(dataset.NamePopulation)
	if err != nil {
		return nil, err
	}
	type best struct {
		year int
		pop  float64
	}
	by := make(map[string]best)
	put := func(k string, p record.Population) {
		if k == "" {
			return
		}
		if b, ok := by[k]; !ok || p.Year > b.year {
			by[k] = best{p.Year, p.Population}
		}
	}
	for _, p := range ps {
		if year != 0 && p.Year > year {
			continue
		}
		put(pc.Names.Key(p.Entity), p)
		put(p.Code, p)
	}
	out := make(map[string]float64, len(by))
	for k, b := range by {
		out[k] = b.pop
	}
	return out, nil
}

func lookupPopulation(pc *pipeline.Context, pops map[string]float64, o record.Observation) (float64, bool) {
	if o.Code != "" {
		if p, ok := pops[o.Code]; ok {
			return p, true
		}
	}
	p, ok := pops[pc.Names.Key(o.Location)]
	return p, ok
}

// newScene returns a scene sized to the frame.
func newScene(pc *pipeline.Context, subtitle string) *scene.Scene {
	sc := scene.New(pc.Frame.Width, pc.Frame.Height)
	sc.Subtitle = subtitle
	return sc
}

// plotX returns a horizontal scale across the plot area.
func plotX(f pipeline.Frame, lo, hi float64) scale.Linear {
	return scale.NewLinear(lo, hi, f.Margin.Left, f.Width-f.Margin.Right)
}

// plotY returns a vertical scale with lo at the bottom of the plot area.
func plotY(f pipeline.Frame, lo, hi float64) scale.Linear {
	return scale.NewLinear(lo, hi, f.Height-f.Margin.Bottom, f.Margin.Top)
}

func bottomAxis(s scale.Linear, y float64, label string, decimals int) scene.Axis {
	ax := scene.Axis{Orient: scene.Bottom, Offset: y, Start: s.Range[0], End: s.Range[1], Label: label}
	for _, v := range s.Ticks(axisTicks) {
		ax.Ticks = append(ax.Ticks, scene.Tick{Pos: s.Map(v), Label: scene.Fixed(v, decimals)})
	}
	return ax
}

func leftAxis(s scale.Linear, x float64, label string, decimals int) scene.Axis {
	ax := scene.Axis{Orient: scene.Left, Offset: x, Start: s.Range[0], End: s.Range[1], Label: label}
	for _, v := range s.Ticks(axisTicks) {
		ax.Ticks = append(ax.Ticks, scene.Tick{Pos: s.Map(v), Label: scene.Fixed(v, decimals)})
	}
	return ax
}

func bandAxis(b scale.Band, orient scene.Orient, offset float64, label string) scene.Axis {
	ax := scene.Axis{Orient: orient, Offset: offset, Start: b.Range[0], End: b.Range[1], Label: label}
	for _, k := range b.Domain {
		c, _ := b.Center(k)
		ax.Ticks = append(ax.Ticks, scene.Tick{Pos: c, Label: k})
	}
	return ax
}

// valueScale fits a padded, nice domain around values.
func valueScale(values []float64, pad float64) (lo, hi float64, ok bool) {
	lo, hi, ok = scale.Extent(values)
	if !ok {
		return 0, 0, false
	}
	lo, hi = scale.Padded(lo, hi, pad)
	return lo, hi, true
}

// regionPalette colors WHO regions, with fallback colors for others.
func regionPalette(regions []string) *scale.Ordinal {
	return scale.NewOrdinal(scale.RegionColors, regions)
}

func legendFor(keys []string, colors *scale.Ordinal) []scene.LegendItem {
	items := make([]scene.LegendItem, len(keys))
	for i, k := range keys {
		items[i] = scene.LegendItem{Label: k, Color: colors.Color(k)}
	}
	return items
}

func years(v float64) string {
	return scene.Fixed(v, 1) + " years"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// gradientLegend samples a palette into a legend bar.
func gradientLegend(s scale.Sequential, minLabel, maxLabel string, noData bool) *scene.Gradient {
	g := &scene.Gradient{MinLabel: minLabel, MaxLabel: maxLabel}
	for i := 0; i <= 8; i++ {
		g.Colors = append(g.Colors, scale.Hex(s.Palette.Map(float64(i)/8)))
	}
	if noData {
		g.NoData = scale.NoDataColor
	}
	return g
}
