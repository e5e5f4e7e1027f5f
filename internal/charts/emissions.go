package charts

import (
	"fmt"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/layout"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

type flowData struct {
	Year  int
	Graph transform.FlowGraph
}

// Flow is the alluvial chart of CO2 from continents through their largest
// emitters into fossil and land-use sources.
func Flow() pipeline.Definition {
	return pipeline.Stages[flowData]{
		Info: pipeline.Info{
			Kind:        "flow",
			Title:       "CO₂ emissions by continent, country and source",
			Description: "Alluvial diagram: continent to top emitters to fossil fuels and land-use change.",
			Sources:     []string{dataset.NameCO2, dataset.NameContinents},
		},
		Transform: flowTransform,
		Render:    flowRender,
	}
}

func flowTransform(pc *pipeline.Context) (flowData, error) {
	fossil, err := pc.Emissions(dataset.NameCO2, record.MeasureFossil)
	if err != nil {
		return flowData{}, err
	}
	land, err := pc.Emissions(dataset.NameCO2, record.MeasureLandUse)
	if err != nil {
		return flowData{}, err
	}
	cont, err := continents(pc)
	if err != nil {
		return flowData{}, err
	}
	year, err := emissionYear(pc, fossil)
	if err != nil {
		return flowData{}, err
	}

	g := transform.BuildFlow(transform.CO2Flow(fossil, land, cont, pc.Key, year, TopPerContinent))
	if len(g.Links) == 0 {
		return flowData{}, fmt.Errorf("year %d: %w", year, pipeline.ErrNoData)
	}
	if g.Dropped > 0 {
		pc.Logger.Debug("dropped flow links", "chart", pc.Chart, "dropped", g.Dropped)
	}
	return flowData{Year: year, Graph: g}, nil
}

func flowRender(pc *pipeline.Context, d flowData) (*scene.Scene, error) {
	f := pc.Frame
	res, err := layout.Sankey{
		Width:       f.InnerWidth(),
		Height:      f.InnerHeight(),
		NodeWidth:   layout.DefaultNodeWidth,
		NodePadding: layout.DefaultNodePadding,
	}.Layout(d.Graph)
	if err != nil {
		return nil, err
	}
	dx, dy := f.Margin.Left, f.Margin.Top
	for i := range res.Nodes {
		n := &res.Nodes[i]
		n.X0, n.X1 = n.X0+dx, n.X1+dx
		n.Y0, n.Y1 = n.Y0+dy, n.Y1+dy
	}
	for i := range res.Links {
		res.Links[i].Y0 += dy
		res.Links[i].Y1 += dy
	}

	names := make([]string, len(res.Nodes))
	for i, n := range res.Nodes {
		names[i] = n.Name
	}
	colors := scale.NewOrdinal(nil, names)

	sc := newScene(pc, fmt.Sprintf("%d, top %d countries per continent (tonnes)", d.Year, TopPerContinent))
	for _, l := range res.Links {
		src, dst := res.Nodes[l.Source], res.Nodes[l.Target]
		sc.Add(scene.Shape{
			Key:     "link:" + src.Name + "→" + dst.Name,
			Kind:    scene.KindPath,
			D:       res.LinkPath(l),
			Style:   scene.Style{Fill: "none", Stroke: colors.Color(src.Name), StrokeWidth: max(l.Width, 1), Opacity: 0.4},
			Tooltip: fmt.Sprintf("%s → %s: %s t", src.Name, dst.Name, scene.Thousands(l.Value)),
		})
	}
	for _, n := range res.Nodes {
		sc.Add(scene.Shape{
			Key:        "node:" + n.Name,
			Kind:       scene.KindRect,
			X:          n.X0,
			Y:          n.Y0,
			W:          n.X1 - n.X0,
			H:          max(n.Y1-n.Y0, 1),
			Style:      scene.Style{Fill: colors.Color(n.Name), Stroke: "#333", StrokeWidth: 0.5},
			Tooltip:    fmt.Sprintf("%s: %s t", n.Name, scene.Thousands(n.Value)),
			HoverFill:  highlight,
			HoverScale: 1,
		})
		label := scene.Shape{
			Key:   "label:" + n.Name,
			Kind:  scene.KindText,
			X:     n.X1 + 6,
			Y:     (n.Y0+n.Y1)/2 + 4,
			Text:  n.Name,
			Style: scene.Style{FontSize: 11, Anchor: "start"},
		}
		if n.Column == res.Columns-1 {
			label.X = n.X0 - 6
			label.Style.Anchor = "end"
		}
		sc.Add(label)
	}
	return sc, nil
}

type heatData struct {
	Year     int
	Emitters []transform.Emitter
}

// Heatmap compares fossil and land-use emissions of the largest emitters.
func Heatmap() pipeline.Definition {
	return pipeline.Stages[heatData]{
		Info: pipeline.Info{
			Kind:        "heatmap",
			Title:       "Top CO₂ emitters: fossil fuels and land-use change",
			Description: "Heatmap of the largest fossil emitters for a year, by emission source.",
			Sources:     []string{dataset.NameCO2},
		},
		Transform: func(pc *pipeline.Context) (heatData, error) {
			fossil, err := pc.Emissions(dataset.NameCO2, record.MeasureFossil)
			if err != nil {
				return heatData{}, err
			}
			land, err := pc.Emissions(dataset.NameCO2, record.MeasureLandUse)
			if err != nil {
				return heatData{}, err
			}
			year, err := emissionYear(pc, fossil)
			if err != nil {
				return heatData{}, err
			}
			top := transform.TopEmitters(fossil, land, pc.Key, year, TopEmitterCount)
			if len(top) == 0 {
				return heatData{}, fmt.Errorf("year %d: %w", year, pipeline.ErrNoData)
			}
			return heatData{Year: year, Emitters: top}, nil
		},
		Render: heatRender,
	}
}

func heatRender(pc *pipeline.Context, d heatData) (*scene.Scene, error) {
	f := pc.Frame
	entities := make([]string, len(d.Emitters))
	var values []float64
	for i, e := range d.Emitters {
		entities[i] = e.Entity
		values = append(values, e.Fossil)
		if e.LandUse.Valid {
			values = append(values, e.LandUse.Value)
		}
	}
	lo, hi, _ := scale.Extent(values)
	colors := scale.Sequential{Min: lo, Max: hi, Palette: scale.Reds}

	sources := []string{transform.SinkFossil, transform.SinkLandUse}
	x := scale.NewBand(sources, f.Margin.Left, f.Width-f.Margin.Right, 0.05)
	y := scale.NewBand(entities, f.Margin.Top, f.Height-f.Margin.Bottom, 0.05)

	sc := newScene(pc, fmt.Sprintf("%d, tonnes", d.Year))
	sc.Axes = []scene.Axis{
		bandAxis(x, scene.Bottom, f.Height-f.Margin.Bottom, "Source"),
		bandAxis(y, scene.Left, f.Margin.Left, ""),
	}
	sc.Gradient = gradientLegend(colors, scene.Thousands(lo), scene.Thousands(hi), true)

	for _, e := range d.Emitters {
		cells := []transform.Stat{{Value: e.Fossil, Valid: true}, e.LandUse}
		for i, src := range sources {
			x0, _ := x.Map(src)
			y0, _ := y.Map(e.Entity)
			v := cells[i]
			tip := fmt.Sprintf("%s, %s: no data", e.Entity, src)
			if v.Valid {
				tip = fmt.Sprintf("%s, %s: %s t", e.Entity, src, scene.Thousands(v.Value))
			}
			sc.Add(scene.Shape{
				Key:        e.Entity + "|" + src,
				Kind:       scene.KindRect,
				X:          x0,
				Y:          y0,
				W:          x.Bandwidth(),
				H:          y.Bandwidth(),
				Style:      scene.Style{Fill: colors.Color(v.Value, v.Valid), Stroke: "#fff"},
				Tooltip:    tip,
				HoverFill:  highlight,
				HoverScale: 1,
			})
		}
	}
	return sc, nil
}

type stackData struct {
	Year int
	Rows []transform.StackRow
}

// Stacked shows per-capita CO2 per continent, split into the largest
// countries and the rest.
func Stacked() pipeline.Definition {
	return pipeline.Stages[stackData]{
		Info: pipeline.Info{
			Kind:        "stacked",
			Title:       "Per-capita CO₂ emissions by continent",
			Description: "Stacked bars of the top countries per continent plus the remainder.",
			Sources:     []string{dataset.NameCO2, dataset.NameContinents},
		},
		Transform: func(pc *pipeline.Context) (stackData, error) {
			es, err := pc.Emissions(dataset.NameCO2, record.MeasurePerCapita)
			if err != nil {
				return stackData{}, err
			}
			cont, err := continents(pc)
			if err != nil {
				return stackData{}, err
			}
			year, err := emissionYear(pc, es)
			if err != nil {
				return stackData{}, err
			}
			rows := transform.ContinentStacks(es, cont, pc.Key, year, TopPerContinent)
			if len(rows) == 0 {
				return stackData{}, fmt.Errorf("year %d: %w", year, pipeline.ErrNoData)
			}
			return stackData{Year: year, Rows: rows}, nil
		},
		Render: stackRender,
	}
}

func stackRender(pc *pipeline.Context, d stackData) (*scene.Scene, error) {
	f := pc.Frame
	names := make([]string, len(d.Rows))
	var top float64
	for i, r := range d.Rows {
		names[i] = r.Continent
		top = max(top, r.Total)
	}
	if top <= 0 {
		top = 1
	}
	x := scale.NewBand(names, f.Margin.Left, f.Width-f.Margin.Right, 0.2)
	y := plotY(f, 0, top*1.05).Nice(axisTicks)

	sc := newScene(pc, fmt.Sprintf("%d, top %d countries per continent", d.Year, TopPerContinent))
	sc.Axes = []scene.Axis{
		bandAxis(x, scene.Bottom, f.Height-f.Margin.Bottom, "Continent"),
		leftAxis(y, f.Margin.Left, "Tonnes per person", 0),
	}
	sc.Legend = []scene.LegendItem{{Label: transform.OtherLabel, Color: neutral}}

	for _, r := range d.Rows {
		x0, _ := x.Map(r.Continent)
		var acc float64
		for i, s := range r.Segments {
			fill := scale.Category10[i%len(scale.Category10)]
			if s.Name == transform.OtherLabel {
				fill = neutral
			}
			y0, y1 := y.Map(acc+s.Value), y.Map(acc)
			acc += s.Value
			sc.Add(scene.Shape{
				Key:        r.Continent + "|" + s.Name,
				Kind:       scene.KindRect,
				X:          x0,
				Y:          y0,
				W:          x.Bandwidth(),
				H:          y1 - y0,
				Style:      scene.Style{Fill: fill, Stroke: "#fff", StrokeWidth: 0.5},
				Tooltip:    fmt.Sprintf("%s (%s): %s t per person", s.Name, r.Continent, scene.Fixed(s.Value, 2)),
				HoverFill:  highlight,
				HoverScale: 1,
			})
		}
	}
	return sc, nil
}
