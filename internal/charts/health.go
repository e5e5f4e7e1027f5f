package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/layout"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

type bulletData struct {
	Year    int
	Regions []transform.Extremes
}

// Bullet compares life expectancy with healthy life expectancy for the
// highest and lowest country of each region.
func Bullet() pipeline.Definition {
	return pipeline.Stages[bulletData]{
		Info: pipeline.Info{
			Kind:        "bullet",
			Title:       "Life expectancy and healthy life expectancy extremes",
			Description: "Per region, the countries with the highest and lowest life expectancy and their healthy years.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: func(pc *pipeline.Context) (bulletData, error) {
			leAll, err := lifeSlice(pc, record.IndicatorLE, pc.Selection.Sex)
			if err != nil {
				return bulletData{}, err
			}
			hleAll, err := lifeSlice(pc, record.IndicatorHALE, pc.Selection.Sex)
			if err != nil {
				return bulletData{}, err
			}
			le, year, err := atYear(pc, leAll)
			if err != nil {
				return bulletData{}, err
			}
			var hle []record.Observation
			for _, o := range hleAll {
				if o.Period == year {
					hle = append(hle, o)
				}
			}
			ex := transform.RegionExtremes(transform.HealthGaps(le, hle))
			if len(ex) == 0 {
				return bulletData{}, fmt.Errorf("year %d: no healthy life expectancy: %w", year, pipeline.ErrNoData)
			}
			return bulletData{Year: year, Regions: ex}, nil
		},
		Render: bulletRender,
	}
}

func bulletRender(pc *pipeline.Context, d bulletData) (*scene.Scene, error) {
	f := pc.Frame
	type row struct {
		key string
		gap transform.HealthGap
	}
	var rows []row
	var labels []string
	var top float64
	for _, e := range d.Regions {
		rows = append(rows,
			row{e.Region + " (highest)", e.HighestLE},
			row{e.Region + " (lowest)", e.LowestLE})
		top = max(top, e.HighestLE.LE)
	}
	for _, r := range rows {
		labels = append(labels, r.key)
	}
	x := plotX(f, 0, top+5).Nice(axisTicks)
	y := scale.NewBand(labels, f.Margin.Top, f.Height-f.Margin.Bottom, 0.25)
	regions := make([]string, len(d.Regions))
	for i, e := range d.Regions {
		regions[i] = e.Region
	}
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%d, %s", d.Year, pc.Selection.Sex))
	sc.Axes = []scene.Axis{
		bottomAxis(x, f.Height-f.Margin.Bottom, "Years", 0),
		bandAxis(y, scene.Left, f.Margin.Left, ""),
	}
	sc.Legend = []scene.LegendItem{{Label: "Life expectancy", Color: neutral}}
	sc.Legend = append(sc.Legend, legendFor(regions, colors)...)

	for _, r := range rows {
		y0, _ := y.Map(r.key)
		g := r.gap
		tip := fmt.Sprintf("%s (%s)\nLife expectancy: %s\nHealthy: %s\nUnhealthy: %s",
			g.Location, g.ParentLocation, years(g.LE), years(g.HLE), years(g.Unhealthy))
		sc.Add(scene.Shape{
			Key:     "le:" + r.key,
			Kind:    scene.KindRect,
			X:       x.Map(0),
			Y:       y0,
			W:       x.Map(g.LE) - x.Map(0),
			H:       y.Bandwidth(),
			Style:   scene.Style{Fill: neutral},
			Tooltip: tip,
		})
		sc.Add(scene.Shape{
			Key:        "hle:" + r.key,
			Kind:       scene.KindRect,
			X:          x.Map(0),
			Y:          y0 + y.Bandwidth()/4,
			W:          x.Map(g.HLE) - x.Map(0),
			H:          y.Bandwidth() / 2,
			Style:      scene.Style{Fill: colors.Color(g.ParentLocation)},
			Tooltip:    tip,
			HoverFill:  highlight,
			HoverScale: 1,
		})
	}
	return sc, nil
}

type radarData struct {
	Year int
	Rows []transform.RadarRow
	Max  float64
}

// Radar shows four life expectancy indicators for up to ten countries.
func Radar() pipeline.Definition {
	return pipeline.Stages[radarData]{
		Info: pipeline.Info{
			Kind:        "radar",
			Title:       "Life expectancy profile by country",
			Description: "Life expectancy and healthy life expectancy, at birth and at 60, for the selected countries.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: radarTransform,
		Render:    radarRender,
	}
}

func radarTransform(pc *pipeline.Context) (radarData, error) {
	obs, err := pc.Observations(dataset.NameLife)
	if err != nil {
		return radarData{}, err
	}
	// Countries are matched below through the reconciliation table.
	sel := pc.Selection
	sel.Countries = nil
	rows := transform.ObservationFilter{Sex: sel.Sex, Selection: sel}.Filter(obs)
	le := transform.ObservationFilter{Indicator: record.IndicatorLE}.Filter(rows)
	le, year, err := atYear(pc, le)
	if err != nil {
		return radarData{}, err
	}

	// Resolve selected names to the spelling used in the data.
	locations := make(map[string]string)
	for _, o := range le {
		locations[pc.Names.Key(o.Location)] = o.Location
	}
	var countries []string
	for _, c := range pc.Selection.Countries {
		if loc, ok := locations[pc.Names.Key(c)]; ok {
			countries = append(countries, loc)
		}
	}
	if len(pc.Selection.Countries) == 0 {
		countries = transform.Keys(le, func(o record.Observation) string { return o.Location })
		if len(countries) > RadarDefault {
			countries = countries[:RadarDefault]
		}
	}

	var out radarData
	out.Year = year
	for _, r := range transform.RadarRows(transform.ObservationFilter{Year: year}.Filter(rows), countries) {
		valid := false
		for _, v := range r.Values {
			if v.Valid {
				valid = true
				out.Max = max(out.Max, v.Value)
			}
		}
		if valid {
			out.Rows = append(out.Rows, r)
		}
	}
	if len(out.Rows) == 0 {
		return radarData{}, fmt.Errorf("year %d: %w", year, pipeline.ErrNoData)
	}
	return out, nil
}

var radarLabels = []string{"LE at birth", "LE at 60", "HALE at birth", "HALE at 60"}

func radarRender(pc *pipeline.Context, d radarData) (*scene.Scene, error) {
	f := pc.Frame
	top := 1.0
	if d.Max > 0 {
		top = scale.NewLinear(0, d.Max, 0, 1).Nice(5).Domain[1]
	}
	r := layout.Radar{
		CX:     f.Margin.Left + f.InnerWidth()/2,
		CY:     f.Margin.Top + f.InnerHeight()/2,
		Radius: min(f.InnerWidth(), f.InnerHeight())/2 - 20,
		Axes:   len(transform.RadarIndicators),
	}

	names := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		names[i] = row.Country
	}
	colors := scale.NewOrdinal(nil, names)

	sc := newScene(pc, fmt.Sprintf("%d, %s, scale 0 to %s years", d.Year, pc.Selection.Sex, scene.Fixed(top, 0)))
	sc.Legend = legendFor(names, colors)

	for level := 1; level <= 4; level++ {
		u := float64(level) / 4
		sc.Add(scene.Shape{
			Key:   fmt.Sprintf("ring:%d", level),
			Kind:  scene.KindPath,
			D:     r.Polygon([]float64{u, u, u, u}),
			Style: scene.Style{Fill: "none", Stroke: "#ddd"},
		})
	}
	for i, label := range radarLabels {
		x, y := r.Point(i, 1)
		sc.Add(scene.Shape{
			Key:   "axis:" + label,
			Kind:  scene.KindLine,
			X:     r.CX,
			Y:     r.CY,
			X2:    x,
			Y2:    y,
			Style: scene.Style{Stroke: "#999"},
		})
		lx, ly := r.Point(i, 1.1)
		sc.Add(scene.Shape{
			Key:   "axis-label:" + label,
			Kind:  scene.KindText,
			X:     lx,
			Y:     ly,
			Text:  label,
			Style: scene.Style{FontSize: 11, Anchor: "middle"},
		})
	}

	for _, row := range d.Rows {
		us := make([]float64, len(row.Values))
		var tip strings.Builder
		tip.WriteString(row.Country)
		for i, v := range row.Values {
			if v.Valid && top > 0 {
				us[i] = v.Value / top
			}
			val := "n/a"
			if v.Valid {
				val = years(v.Value)
			}
			fmt.Fprintf(&tip, "\n%s: %s", radarLabels[i], val)
		}
		c := colors.Color(row.Country)
		sc.Add(scene.Shape{
			Key:        row.Country,
			Kind:       scene.KindPath,
			D:          r.Polygon(us),
			Style:      scene.Style{Fill: c, Stroke: c, StrokeWidth: 2, Opacity: 0.35},
			Tooltip:    tip.String(),
			HoverFill:  highlight,
			HoverScale: 1,
		})
	}
	return sc, nil
}

// series is one named line of yearly values.
type series struct {
	Name   string
	Points []transform.YearValue
	Width  float64
}

type seriesData struct {
	Subtitle string
	Series   []series
	YLabel   string
}

// Line follows life expectancy at 60 over time for selected countries.
func Line() pipeline.Definition {
	return pipeline.Stages[seriesData]{
		Info: pipeline.Info{
			Kind:        "line",
			Title:       "Life expectancy at age 60 over time",
			Description: "Remaining years at 60 per country across the selected year range.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: lineTransform,
		Render:    seriesRender,
	}
}

func lineTransform(pc *pipeline.Context) (seriesData, error) {
	rows, err := lifeSlice(pc, record.IndicatorLE60, pc.Selection.Sex)
	if err != nil {
		return seriesData{}, err
	}
	rows = inYears(pc.Selection, rows)
	if len(pc.Selection.Countries) == 0 {
		// Without a selection, follow the first countries alphabetically.
		locs := transform.Keys(rows, func(o record.Observation) string { return o.Location })
		if len(locs) > transform.MaxCountries {
			locs = locs[:transform.MaxCountries]
		}
		keep := make(map[string]bool, len(locs))
		for _, l := range locs {
			keep[l] = true
		}
		var kept []record.Observation
		for _, o := range rows {
			if keep[o.Location] {
				kept = append(kept, o)
			}
		}
		rows = kept
	}
	if len(rows) == 0 {
		return seriesData{}, pipeline.ErrNoData
	}

	groups := transform.GroupBy(rows,
		func(o record.Observation) string { return o.Location },
		func(o record.Observation) int { return o.Period },
		func(o record.Observation) (float64, bool) { return o.Value, true })
	idx := make(map[string]int)
	var out seriesData
	for _, g := range groups {
		i, ok := idx[g.Outer]
		if !ok {
			i = len(out.Series)
			idx[g.Outer] = i
			out.Series = append(out.Series, series{Name: g.Outer, Width: 2})
		}
		out.Series[i].Points = append(out.Series[i].Points, transform.YearValue{Year: g.Inner, Stat: g.Reduce(transform.Mean)})
	}
	out.Subtitle = string(pc.Selection.Sex)
	out.YLabel = "Years remaining at 60"
	return out, nil
}

// Global plots the global average life expectancy next to each region's.
func Global() pipeline.Definition {
	return pipeline.Stages[seriesData]{
		Info: pipeline.Info{
			Kind:        "global",
			Title:       "Global and regional life expectancy",
			Description: "Mean life expectancy at birth per year, worldwide and per WHO region.",
			Sources:     []string{dataset.NameLife},
		},
		Transform: globalTransform,
		Render:    seriesRender,
	}
}

func globalTransform(pc *pipeline.Context) (seriesData, error) {
	obs, err := pc.Observations(dataset.NameLife)
	if err != nil {
		return seriesData{}, err
	}
	sel := pc.Selection
	rows := transform.ObservationFilter{Indicator: record.IndicatorLE, Sex: sel.Sex}.Filter(obs)
	rows = inYears(sel, rows)
	if len(rows) == 0 {
		return seriesData{}, pipeline.ErrNoData
	}

	out := seriesData{Subtitle: string(sel.Sex), YLabel: "Life expectancy at birth (years)"}
	regional := transform.RegionalAverages(rows)
	for _, region := range sortedKeys(regional) {
		if sel.InRegion(region) {
			out.Series = append(out.Series, series{Name: region, Points: regional[region], Width: 1.5})
		}
	}
	out.Series = append(out.Series, series{Name: "Global", Points: transform.GlobalAverage(rows), Width: 3})
	return out, nil
}

func seriesRender(pc *pipeline.Context, d seriesData) (*scene.Scene, error) {
	f := pc.Frame
	var xs, ys []float64
	for _, s := range d.Series {
		for _, p := range s.Points {
			if p.Stat.Valid {
				xs = append(xs, float64(p.Year))
				ys = append(ys, p.Stat.Value)
			}
		}
	}
	x0, x1, ok := scale.Extent(xs)
	if !ok {
		return nil, pipeline.ErrNoData
	}
	if x0 == x1 {
		x0, x1 = scale.Padded(x0, x1, 1)
	}
	y0, y1, _ := valueScale(ys, 1)
	x := plotX(f, x0, x1)
	y := plotY(f, y0, y1).Nice(axisTicks)

	names := make([]string, len(d.Series))
	for i, s := range d.Series {
		names[i] = s.Name
	}
	colors := scale.NewOrdinal(scale.RegionColors, names)

	sc := newScene(pc, d.Subtitle)
	sc.Axes = []scene.Axis{
		bottomAxis(x, f.Height-f.Margin.Bottom, "Year", 0),
		leftAxis(y, f.Margin.Left, d.YLabel, 0),
	}
	sc.Legend = legendFor(names, colors)

	for _, s := range d.Series {
		c := colors.Color(s.Name)
		var path strings.Builder
		pen := "M"
		for _, p := range s.Points {
			if !p.Stat.Valid {
				// A gap breaks the line rather than drawing through zero.
				pen = "M"
				continue
			}
			fmt.Fprintf(&path, "%s%s,%s", pen, scene.Fixed(x.Map(float64(p.Year)), 1), scene.Fixed(y.Map(p.Stat.Value), 1))
			pen = "L"
		}
		if path.Len() == 0 {
			continue
		}
		sc.Add(scene.Shape{
			Key:   "line:" + s.Name,
			Kind:  scene.KindPath,
			D:     path.String(),
			Style: scene.Style{Fill: "none", Stroke: c, StrokeWidth: s.Width},
		})
		for _, p := range s.Points {
			if !p.Stat.Valid {
				continue
			}
			sc.Add(scene.Shape{
				Key:        fmt.Sprintf("%s|%d", s.Name, p.Year),
				Kind:       scene.KindCircle,
				X:          x.Map(float64(p.Year)),
				Y:          y.Map(p.Stat.Value),
				R:          3,
				Style:      scene.Style{Fill: c},
				Tooltip:    fmt.Sprintf("%s, %d: %s", s.Name, p.Year, years(p.Stat.Value)),
				HoverScale: 1.6,
			})
		}
	}
	return sc, nil
}

// sortByValue orders observations by descending value, then location.
func sortByValue(rows []record.Observation) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Location < rows[j].Location
	})
}
