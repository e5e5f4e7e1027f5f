package charts

import (
	"fmt"
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/layout"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// regionValues groups values of a year's rows by region, skipping rows
// without one.
func regionValues(rows []record.Observation) []transform.Group[string, string] {
	groups := transform.GroupBy(rows,
		func(o record.Observation) string { return o.ParentLocation },
		func(record.Observation) string { return "" },
		func(o record.Observation) (float64, bool) { return o.Value, o.ParentLocation != "" })
	out := groups[:0]
	for _, g := range groups {
		if g.Outer != "" {
			out = append(out, g)
		}
	}
	return out
}

// lifeAtYear is the common transform of the distribution charts.
func lifeAtYear(pc *pipeline.Context) ([]record.Observation, int, error) {
	rows, err := lifeSlice(pc, record.IndicatorLE, pc.Selection.Sex)
	if err != nil {
		return nil, 0, err
	}
	return atYear(pc, rows)
}

type boxStats struct {
	Region                   string
	N                        int
	Min, Q1, Median, Q3, Max transform.Stat
}

type boxData struct {
	Year  int
	Boxes []boxStats
}

// Box shows life expectancy quartiles per region.
func Box() pipeline.Definition {
	return pipeline.Stages[boxData]{
		Info: pipeline.Info{
			Kind:        "box",
			Title:       "Life expectancy distribution by region",
			Description: "Box plot of life expectancy at birth across each region's countries.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: func(pc *pipeline.Context) (boxData, error) {
			rows, year, err := lifeAtYear(pc)
			if err != nil {
				return boxData{}, err
			}
			d := boxData{Year: year}
			for _, g := range regionValues(rows) {
				if len(g.Values) == 0 {
					continue
				}
				d.Boxes = append(d.Boxes, boxStats{
					Region: g.Outer,
					N:      len(g.Values),
					Min:    g.Reduce(transform.Min),
					Q1:     g.Reduce(transform.Quantile(0.25)),
					Median: g.Reduce(transform.Median),
					Q3:     g.Reduce(transform.Quantile(0.75)),
					Max:    g.Reduce(transform.Max),
				})
			}
			if len(d.Boxes) == 0 {
				return boxData{}, fmt.Errorf("year %d: no regional values: %w", year, pipeline.ErrNoData)
			}
			return d, nil
		},
		Render: boxRender,
	}
}

func boxRender(pc *pipeline.Context, d boxData) (*scene.Scene, error) {
	f := pc.Frame
	regions := make([]string, len(d.Boxes))
	var bounds []float64
	for i, b := range d.Boxes {
		regions[i] = b.Region
		bounds = append(bounds, b.Min.Value, b.Max.Value)
	}
	lo, hi, _ := valueScale(bounds, 2)
	x := scale.NewBand(regions, f.Margin.Left, f.Width-f.Margin.Right, 0.3)
	y := plotY(f, lo, hi).Nice(axisTicks)
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%d, %s", d.Year, pc.Selection.Sex))
	sc.Axes = []scene.Axis{
		bandAxis(x, scene.Bottom, f.Height-f.Margin.Bottom, "Region"),
		leftAxis(y, f.Margin.Left, "Life expectancy (years)", 0),
	}

	for _, b := range d.Boxes {
		x0, _ := x.Map(b.Region)
		cx, _ := x.Center(b.Region)
		w := x.Bandwidth()
		sc.Add(scene.Shape{
			Key:   "whisker:" + b.Region,
			Kind:  scene.KindLine,
			X:     cx,
			Y:     y.Map(b.Min.Value),
			X2:    cx,
			Y2:    y.Map(b.Max.Value),
			Style: scene.Style{Stroke: "#333"},
		})
		sc.Add(scene.Shape{
			Key:  "box:" + b.Region,
			Kind: scene.KindRect,
			X:    x0,
			Y:    y.Map(b.Q3.Value),
			W:    w,
			H:    y.Map(b.Q1.Value) - y.Map(b.Q3.Value),
			Style: scene.Style{
				Fill:   colors.Color(b.Region),
				Stroke: "#333",
			},
			Tooltip: fmt.Sprintf("%s (%d countries)\nMax: %s\nQ3: %s\nMedian: %s\nQ1: %s\nMin: %s",
				b.Region, b.N, years(b.Max.Value), years(b.Q3.Value), years(b.Median.Value), years(b.Q1.Value), years(b.Min.Value)),
			HoverFill:  highlight,
			HoverScale: 1,
		})
		sc.Add(scene.Shape{
			Key:   "median:" + b.Region,
			Kind:  scene.KindLine,
			X:     x0,
			Y:     y.Map(b.Median.Value),
			X2:    x0 + w,
			Y2:    y.Map(b.Median.Value),
			Style: scene.Style{Stroke: "#fff", StrokeWidth: 2},
		})
	}
	return sc, nil
}

type violin struct {
	Region string
	N      int
	Median transform.Stat
	Points []transform.DensityPoint
}

type violinData struct {
	Year    int
	Domain  [2]float64
	Violins []violin
}

// Violin shows the kernel density of life expectancy per region.
func Violin() pipeline.Definition {
	return pipeline.Stages[violinData]{
		Info: pipeline.Info{
			Kind:        "violin",
			Title:       "Life expectancy density by region",
			Description: "Epanechnikov kernel density of life expectancy at birth per region.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: violinTransform,
		Render:    violinRender,
	}
}

func violinTransform(pc *pipeline.Context) (violinData, error) {
	rows, year, err := lifeAtYear(pc)
	if err != nil {
		return violinData{}, err
	}
	values := make([]float64, len(rows))
	for i, o := range rows {
		values[i] = o.Value
	}
	// Pad by the bandwidth so the tails reach zero inside the domain.
	lo, hi, ok := valueScale(values, transform.DefaultBandwidth)
	if !ok {
		return violinData{}, pipeline.ErrNoData
	}
	grid := scale.NewLinear(lo, hi, 0, 1).Grid(transform.DefaultGridTicks)

	d := violinData{Year: year, Domain: [2]float64{lo, hi}}
	for _, g := range regionValues(rows) {
		if len(g.Values) == 0 {
			continue
		}
		d.Violins = append(d.Violins, violin{
			Region: g.Outer,
			N:      len(g.Values),
			Median: g.Reduce(transform.Median),
			Points: transform.KDE(g.Values, grid, transform.DefaultBandwidth),
		})
	}
	if len(d.Violins) == 0 {
		return violinData{}, fmt.Errorf("year %d: no regional values: %w", year, pipeline.ErrNoData)
	}
	return d, nil
}

func violinRender(pc *pipeline.Context, d violinData) (*scene.Scene, error) {
	f := pc.Frame
	regions := make([]string, len(d.Violins))
	var peak float64
	for i, v := range d.Violins {
		regions[i] = v.Region
		peak = max(peak, transform.MaxDensity(v.Points))
	}
	x := scale.NewBand(regions, f.Margin.Left, f.Width-f.Margin.Right, 0.1)
	y := plotY(f, d.Domain[0], d.Domain[1])
	width := scale.NewLinear(0, max(peak, 1e-9), 0, x.Bandwidth()/2)
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%d, %s, bandwidth %s", d.Year, pc.Selection.Sex, scene.Fixed(transform.DefaultBandwidth, 0)))
	sc.Axes = []scene.Axis{
		bandAxis(x, scene.Bottom, f.Height-f.Margin.Bottom, "Region"),
		leftAxis(y, f.Margin.Left, "Life expectancy (years)", 0),
	}

	for _, v := range d.Violins {
		cx, _ := x.Center(v.Region)
		var path strings.Builder
		for i, p := range v.Points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%s,%s", cmd, scene.Fixed(cx+width.Map(p.Density), 1), scene.Fixed(y.Map(p.X), 1))
		}
		for i := len(v.Points) - 1; i >= 0; i-- {
			p := v.Points[i]
			fmt.Fprintf(&path, "L%s,%s", scene.Fixed(cx-width.Map(p.Density), 1), scene.Fixed(y.Map(p.X), 1))
		}
		path.WriteString("Z")
		sc.Add(scene.Shape{
			Key:        "violin:" + v.Region,
			Kind:       scene.KindPath,
			D:          path.String(),
			Style:      scene.Style{Fill: colors.Color(v.Region), Stroke: "#333", StrokeWidth: 0.5},
			Tooltip:    fmt.Sprintf("%s (%d countries)\nMedian: %s", v.Region, v.N, years(v.Median.Value)),
			HoverFill:  highlight,
			HoverScale: 1,
		})
	}
	return sc, nil
}

type beeDatum struct {
	Location string
	Region   string
	LE       float64
	Pop      float64
	HasPop   bool
}

type beeData struct {
	Year int
	Bees []beeDatum
}

// Beeswarm spreads countries along a life expectancy axis, sized by
// population and colored by region.
func Beeswarm() pipeline.Definition {
	return pipeline.Stages[beeData]{
		Info: pipeline.Info{
			Kind:        "beeswarm",
			Title:       "Life expectancy by country",
			Description: "Beeswarm of life expectancy at birth, sized by population and colored by region.",
			Sources:     []string{dataset.NameLife, dataset.NamePopulation},
		},
		Transform: func(pc *pipeline.Context) (beeData, error) {
			rows, year, err := lifeAtYear(pc)
			if err != nil {
				return beeData{}, err
			}
			pops, err := populationAt(pc, year)
			if err != nil {
				return beeData{}, err
			}
			d := beeData{Year: year}
			for _, o := range rows {
				b := beeDatum{Location: o.Location, Region: o.ParentLocation, LE: o.Value}
				b.Pop, b.HasPop = lookupPopulation(pc, pops, o)
				d.Bees = append(d.Bees, b)
			}
			return d, nil
		},
		Render: beeRender,
	}
}

func beeRender(pc *pipeline.Context, d beeData) (*scene.Scene, error) {
	f := pc.Frame
	values := make([]float64, len(d.Bees))
	var maxPop float64
	for i, b := range d.Bees {
		values[i] = b.LE
		maxPop = max(maxPop, b.Pop)
	}
	lo, hi, _ := valueScale(values, 1)
	x := plotX(f, lo, hi).Nice(axisTicks)
	radius := scale.Sqrt{Domain: [2]float64{0, maxPop}, Range: [2]float64{3, 12}}
	regions := transform.Keys(d.Bees, func(b beeDatum) string { return b.Region })
	colors := regionPalette(regions)

	bees := make([]layout.Bee, len(d.Bees))
	for i, b := range d.Bees {
		r := 3.0
		if b.HasPop {
			r = radius.Map(b.Pop)
		}
		bees[i] = layout.Bee{Key: b.Location, X: x.Map(b.LE), R: r}
	}
	placed := layout.Beeswarm(bees, 1)
	cy := f.Margin.Top + f.InnerHeight()/2

	sc := newScene(pc, fmt.Sprintf("%d, %s", d.Year, pc.Selection.Sex))
	sc.Axes = []scene.Axis{bottomAxis(x, f.Height-f.Margin.Bottom, "Life expectancy (years)", 0)}
	sc.Legend = legendFor(regions, colors)

	for i, p := range placed {
		b := d.Bees[i]
		pop := "population unknown"
		if b.HasPop {
			pop = "population " + scene.Thousands(b.Pop)
		}
		sc.Add(scene.Shape{
			Key:        b.Location,
			Kind:       scene.KindCircle,
			X:          p.X,
			Y:          cy + p.Y,
			R:          p.R,
			Style:      scene.Style{Fill: colors.Color(b.Region), Stroke: "#333", StrokeWidth: 0.5},
			Tooltip:    fmt.Sprintf("%s (%s)\nLife expectancy: %s\n%s", b.Location, b.Region, years(b.LE), pop),
			HoverScale: 1.4,
		})
	}
	return sc, nil
}

type errorBarData struct {
	Year int
	Rows []record.Observation
}

// ErrorBar shows each country's life expectancy with its uncertainty range.
func ErrorBar() pipeline.Definition {
	return pipeline.Stages[errorBarData]{
		Info: pipeline.Info{
			Kind:        "errorbar",
			Title:       "Life expectancy with uncertainty range",
			Description: "Point estimates with low and high bounds for the selected year and region.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: func(pc *pipeline.Context) (errorBarData, error) {
			rows, year, err := lifeAtYear(pc)
			if err != nil {
				return errorBarData{}, err
			}
			sortByValue(rows)
			return errorBarData{Year: year, Rows: rows}, nil
		},
		Render: errorBarRender,
	}
}

func errorBarRender(pc *pipeline.Context, d errorBarData) (*scene.Scene, error) {
	f := pc.Frame
	var values []float64
	names := make([]string, len(d.Rows))
	for i, o := range d.Rows {
		names[i] = o.Location
		values = append(values, o.Value)
		if o.HasRange() {
			values = append(values, *o.Low, *o.High)
		}
	}
	lo, hi, _ := valueScale(values, 1)
	x := plotX(f, lo, hi).Nice(axisTicks)
	y := scale.NewBand(names, f.Margin.Top, f.Height-f.Margin.Bottom, 0.2)
	regions := transform.Keys(d.Rows, func(o record.Observation) string { return o.ParentLocation })
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%d, %s", d.Year, pc.Selection.Sex))
	sc.Axes = []scene.Axis{
		bottomAxis(x, f.Height-f.Margin.Bottom, "Life expectancy (years)", 0),
		bandAxis(y, scene.Left, f.Margin.Left, ""),
	}
	sc.Legend = legendFor(regions, colors)

	for _, o := range d.Rows {
		cy, _ := y.Center(o.Location)
		tip := fmt.Sprintf("%s: %s", o.Location, years(o.Value))
		if o.HasRange() {
			tip += fmt.Sprintf(" (%s to %s)", scene.Fixed(*o.Low, 1), scene.Fixed(*o.High, 1))
			sc.Add(scene.Shape{
				Key:   "range:" + o.Location,
				Kind:  scene.KindLine,
				X:     x.Map(*o.Low),
				Y:     cy,
				X2:    x.Map(*o.High),
				Y2:    cy,
				Style: scene.Style{Stroke: "#555", StrokeWidth: 1.5},
			})
		}
		sc.Add(scene.Shape{
			Key:        o.Location,
			Kind:       scene.KindCircle,
			X:          x.Map(o.Value),
			Y:          cy,
			R:          max(min(y.Bandwidth()/2, 5), 1.5),
			Style:      scene.Style{Fill: colors.Color(o.ParentLocation), Stroke: "#333", StrokeWidth: 0.5},
			Tooltip:    tip,
			HoverScale: 1.5,
		})
	}
	return sc, nil
}
