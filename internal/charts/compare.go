package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

type slopeRow struct {
	Location string
	Region   string
	From, To float64
}

func (r slopeRow) change() float64 {
	return r.To - r.From
}

type slopeData struct {
	FromYear, ToYear int
	Rows             []slopeRow
}

// Slope compares life expectancy between two years per country.
func Slope() pipeline.Definition {
	return pipeline.Stages[slopeData]{
		Info: pipeline.Info{
			Kind:        "slope",
			Title:       "Change in life expectancy",
			Description: "Slope chart of life expectancy at birth between two years.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: slopeTransform,
		Render:    slopeRender,
	}
}

func slopeTransform(pc *pipeline.Context) (slopeData, error) {
	rows, err := lifeSlice(pc, record.IndicatorLE, pc.Selection.Sex)
	if err != nil {
		return slopeData{}, err
	}
	all := transform.Years(rows)
	if len(all) == 0 {
		return slopeData{}, pipeline.ErrNoData
	}
	from, to := pc.Selection.Year, pc.Selection.EndYear
	if from == 0 {
		from = all[0]
	}
	if to == 0 {
		to = all[len(all)-1]
	}
	if from == to {
		return slopeData{}, fmt.Errorf("year %d: a slope needs two years: %w", from, pipeline.ErrNoData)
	}

	type pair struct {
		row            slopeRow
		hasFrom, hasTo bool
	}
	by := make(map[string]*pair)
	for _, o := range rows {
		if o.Period != from && o.Period != to {
			continue
		}
		p, ok := by[o.Location]
		if !ok {
			p = &pair{row: slopeRow{Location: o.Location, Region: o.ParentLocation}}
			by[o.Location] = p
		}
		if o.Period == from {
			p.row.From, p.hasFrom = o.Value, true
		} else {
			p.row.To, p.hasTo = o.Value, true
		}
	}

	d := slopeData{FromYear: from, ToYear: to}
	for _, loc := range sortedKeys(by) {
		if p := by[loc]; p.hasFrom && p.hasTo {
			d.Rows = append(d.Rows, p.row)
		}
	}
	if len(d.Rows) == 0 {
		return slopeData{}, fmt.Errorf("years %d and %d: %w", from, to, pipeline.ErrNoData)
	}
	if len(pc.Selection.Countries) == 0 && len(d.Rows) > transform.MaxCountries {
		// Without a selection, keep the largest changes.
		sort.SliceStable(d.Rows, func(i, j int) bool {
			return math.Abs(d.Rows[i].change()) > math.Abs(d.Rows[j].change())
		})
		d.Rows = d.Rows[:transform.MaxCountries]
	}
	return d, nil
}

func slopeRender(pc *pipeline.Context, d slopeData) (*scene.Scene, error) {
	f := pc.Frame
	var values []float64
	for _, r := range d.Rows {
		values = append(values, r.From, r.To)
	}
	lo, hi, _ := valueScale(values, 1)
	y := plotY(f, lo, hi).Nice(axisTicks)
	left, right := f.Margin.Left+40, f.Width-f.Margin.Right-40

	sc := newScene(pc, fmt.Sprintf("%d to %d, %s", d.FromYear, d.ToYear, pc.Selection.Sex))
	sc.Axes = []scene.Axis{leftAxis(y, f.Margin.Left, "Life expectancy (years)", 0)}
	sc.Legend = []scene.LegendItem{{Label: "Increase", Color: "#2a9d8f"}, {Label: "Decrease", Color: "#e63946"}}
	for _, yr := range []struct {
		key string
		x   float64
		y   int
	}{{"from", left, d.FromYear}, {"to", right, d.ToYear}} {
		sc.Add(scene.Shape{
			Key:   "year:" + yr.key,
			Kind:  scene.KindText,
			X:     yr.x,
			Y:     f.Margin.Top - 10,
			Text:  fmt.Sprint(yr.y),
			Style: scene.Style{FontSize: 12, Anchor: "middle"},
		})
	}

	for _, r := range d.Rows {
		c := "#2a9d8f"
		if r.change() < 0 {
			c = "#e63946"
		}
		tip := fmt.Sprintf("%s: %s to %s (%+.1f)", r.Location, scene.Fixed(r.From, 1), scene.Fixed(r.To, 1), r.change())
		sc.Add(scene.Shape{
			Key:        r.Location,
			Kind:       scene.KindLine,
			X:          left,
			Y:          y.Map(r.From),
			X2:         right,
			Y2:         y.Map(r.To),
			Style:      scene.Style{Stroke: c, StrokeWidth: 2},
			Tooltip:    tip,
			HoverScale: 1,
		})
		sc.Add(scene.Shape{
			Key:   "label:" + r.Location,
			Kind:  scene.KindText,
			X:     right + 8,
			Y:     y.Map(r.To) + 4,
			Text:  r.Location,
			Style: scene.Style{FontSize: 11, Anchor: "start"},
		})
		for _, end := range []struct {
			key string
			x   float64
			v   float64
		}{{"from", left, r.From}, {"to", right, r.To}} {
			sc.Add(scene.Shape{
				Key:        end.key + ":" + r.Location,
				Kind:       scene.KindCircle,
				X:          end.x,
				Y:          y.Map(end.v),
				R:          4,
				Style:      scene.Style{Fill: c},
				Tooltip:    tip,
				HoverScale: 1.5,
			})
		}
	}
	return sc, nil
}

type scatterData struct {
	Sex  record.Sex
	Rows []record.Observation
}

// Scatter plots the countries with the lowest life expectancy each year.
func Scatter() pipeline.Definition {
	return pipeline.Stages[scatterData]{
		Info: pipeline.Info{
			Kind:        "scatter",
			Title:       "Lowest life expectancy per year",
			Description: "The five countries with the lowest male life expectancy at birth in each year.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: func(pc *pipeline.Context) (scatterData, error) {
			sex := pc.Selection.Sex
			if sex == record.SexBoth {
				sex = record.SexMale
			}
			rows, err := lifeSlice(pc, record.IndicatorLE, sex)
			if err != nil {
				return scatterData{}, err
			}
			rows = inYears(pc.Selection, rows)
			lowest := transform.LowestN(rows, LowestPerYear)
			d := scatterData{Sex: sex}
			yrs := make([]int, 0, len(lowest))
			for y := range lowest {
				yrs = append(yrs, y)
			}
			sort.Ints(yrs)
			for _, y := range yrs {
				d.Rows = append(d.Rows, lowest[y]...)
			}
			if len(d.Rows) == 0 {
				return scatterData{}, pipeline.ErrNoData
			}
			return d, nil
		},
		Render: scatterRender,
	}
}

func scatterRender(pc *pipeline.Context, d scatterData) (*scene.Scene, error) {
	f := pc.Frame
	xs := make([]float64, len(d.Rows))
	ys := make([]float64, len(d.Rows))
	for i, o := range d.Rows {
		xs[i], ys[i] = float64(o.Period), o.Value
	}
	x0, x1, _ := valueScale(xs, 1)
	y0, y1, _ := valueScale(ys, 2)
	x := plotX(f, x0, x1)
	y := plotY(f, y0, y1).Nice(axisTicks)
	regions := transform.Keys(d.Rows, func(o record.Observation) string { return o.ParentLocation })
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%s, lowest %d per year", d.Sex, LowestPerYear))
	sc.Axes = []scene.Axis{
		bottomAxis(x, f.Height-f.Margin.Bottom, "Year", 0),
		leftAxis(y, f.Margin.Left, "Life expectancy (years)", 0),
	}
	sc.Legend = legendFor(regions, colors)

	for _, o := range d.Rows {
		sc.Add(scene.Shape{
			Key:        fmt.Sprintf("%s|%d", o.Location, o.Period),
			Kind:       scene.KindCircle,
			X:          x.Map(float64(o.Period)),
			Y:          y.Map(o.Value),
			R:          5,
			Style:      scene.Style{Fill: colors.Color(o.ParentLocation), Stroke: "#333", StrokeWidth: 0.5, Opacity: 0.85},
			Tooltip:    fmt.Sprintf("%s (%s), %d: %s", o.Location, o.ParentLocation, o.Period, years(o.Value)),
			HoverScale: 1.5,
		})
	}
	return sc, nil
}
