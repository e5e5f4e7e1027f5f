package charts

import (
	"fmt"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/layout"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// RatioDomain is the fixed color domain of the sex ratio map.
var RatioDomain = [2]float64{0.5, 1.5}

// projection fits the world into the plot area.
func projection(f pipeline.Frame) layout.Projection {
	p := layout.Fit(layout.NaturalEarth1, f.InnerWidth(), f.InnerHeight())
	p.Translate[0] += f.Margin.Left
	p.Translate[1] += f.Margin.Top
	return p
}

// featureIndex finds features by ISO code and by folded canonical name.
type featureIndex map[string]*geojson.Feature

func indexFeatures(pc *pipeline.Context, fc *geojson.FeatureCollection) featureIndex {
	idx := make(featureIndex, 2*len(fc.Features))
	for _, f := range fc.Features {
		if code := dataset.FeatureCode(f); code != "" {
			idx[code] = f
		}
		if name := dataset.FeatureName(f); name != "" {
			idx[pc.Names.Key(name)] = f
		}
	}
	return idx
}

func (idx featureIndex) find(pc *pipeline.Context, code, name string) (*geojson.Feature, bool) {
	if code != "" {
		if f, ok := idx[code]; ok {
			return f, true
		}
	}
	f, ok := idx[pc.Names.Key(name)]
	return f, ok
}

// featureKey is the stable identity of a feature's shape.
func featureKey(f *geojson.Feature) string {
	if code := dataset.FeatureCode(f); code != "" {
		return code
	}
	return dataset.FeatureName(f)
}

type ratioData struct {
	Year   int
	Ratios map[string]transform.SexRatio
	World  *geojson.FeatureCollection
}

// Choropleth maps the female-to-male ratio of healthy life expectancy at 60.
func Choropleth() pipeline.Definition {
	return pipeline.Stages[ratioData]{
		Info: pipeline.Info{
			Kind:        "choropleth",
			Title:       "Healthy life expectancy at 60: female to male ratio",
			Description: "World map of the female/male HALE-at-60 ratio.",
			Sources:     []string{dataset.NameLife},
			Geo:         dataset.NameWorld,
		},
		Transform: choroplethTransform,
		Render:    choroplethRender,
	}
}

func choroplethTransform(pc *pipeline.Context) (ratioData, error) {
	rows, err := lifeSlice(pc, record.IndicatorHALE60, "")
	if err != nil {
		return ratioData{}, err
	}
	rows, year, err := atYear(pc, rows)
	if err != nil {
		return ratioData{}, err
	}
	world, err := pc.Geo(dataset.NameWorld)
	if err != nil {
		return ratioData{}, err
	}

	d := ratioData{Year: year, Ratios: make(map[string]transform.SexRatio), World: world}
	for _, r := range transform.SexRatios(rows) {
		if !r.Ratio.Valid {
			continue
		}
		if r.Code != "" {
			d.Ratios[r.Code] = r
		}
		d.Ratios[pc.Names.Key(r.Location)] = r
	}
	if len(d.Ratios) == 0 {
		return ratioData{}, fmt.Errorf("year %d: no female and male pairs: %w", year, pipeline.ErrNoData)
	}
	return d, nil
}

func choroplethRender(pc *pipeline.Context, d ratioData) (*scene.Scene, error) {
	proj := projection(pc.Frame)
	colors := scale.Sequential{Min: RatioDomain[0], Max: RatioDomain[1], Palette: scale.Purples}

	sc := newScene(pc, fmt.Sprintf("%d", d.Year))
	sc.Gradient = gradientLegend(colors, scene.Fixed(RatioDomain[0], 1), scene.Fixed(RatioDomain[1], 1), true)

	for _, f := range d.World.Features {
		key := featureKey(f)
		path := proj.GeometryPath(f.Geometry)
		if key == "" || path == "" {
			continue
		}
		name := dataset.FeatureName(f)
		r, ok := d.Ratios[dataset.FeatureCode(f)]
		if !ok {
			r, ok = d.Ratios[pc.Names.Key(name)]
		}
		tip := name + ": no data"
		if ok {
			tip = fmt.Sprintf("%s\nFemale: %s\nMale: %s\nRatio: %s",
				r.Location, years(r.Female.Value), years(r.Male.Value), scene.Fixed(r.Ratio.Value, 2))
		}
		sc.Add(scene.Shape{
			Key:        key,
			Kind:       scene.KindPath,
			D:          path,
			Style:      scene.Style{Fill: colors.Color(r.Ratio.Value, ok), Stroke: "#fff", StrokeWidth: 0.5},
			Tooltip:    tip,
			HoverFill:  highlight,
			HoverScale: 1,
		})
	}
	return sc, nil
}

type bubble struct {
	Location string
	Region   string
	LE       float64
	Pop      float64
	HasPop   bool
	Lon, Lat float64
}

type bubbleData struct {
	Year    int
	Bubbles []bubble
	World   *geojson.FeatureCollection
}

// Bubble places one circle per country at its centroid, sized by
// population and colored by region.
func Bubble() pipeline.Definition {
	return pipeline.Stages[bubbleData]{
		Info: pipeline.Info{
			Kind:        "bubble",
			Title:       "Life expectancy and population",
			Description: "Bubble map of life expectancy at birth, sized by population.",
			Sources:     []string{dataset.NameLife, dataset.NamePopulation},
			Geo:         dataset.NameWorld,
		},
		Transform: bubbleTransform,
		Render:    bubbleRender,
	}
}

func bubbleTransform(pc *pipeline.Context) (bubbleData, error) {
	rows, err := lifeSlice(pc, record.IndicatorLE, pc.Selection.Sex)
	if err != nil {
		return bubbleData{}, err
	}
	rows, year, err := atYear(pc, rows)
	if err != nil {
		return bubbleData{}, err
	}
	pops, err := populationAt(pc, year)
	if err != nil {
		return bubbleData{}, err
	}
	world, err := pc.Geo(dataset.NameWorld)
	if err != nil {
		return bubbleData{}, err
	}
	idx := indexFeatures(pc, world)

	d := bubbleData{Year: year, World: world}
	var unplaced int
	for _, o := range rows {
		f, ok := idx.find(pc, o.Code, o.Location)
		if !ok {
			unplaced++
			continue
		}
		lon, lat, ok := layout.Centroid(f.Geometry)
		if !ok {
			unplaced++
			continue
		}
		b := bubble{Location: o.Location, Region: o.ParentLocation, LE: o.Value, Lon: lon, Lat: lat}
		b.Pop, b.HasPop = lookupPopulation(pc, pops, o)
		d.Bubbles = append(d.Bubbles, b)
	}
	if unplaced > 0 {
		pc.Logger.Debug("countries without geometry", "chart", pc.Chart, "count", unplaced)
	}
	if len(d.Bubbles) == 0 {
		return bubbleData{}, fmt.Errorf("year %d: no countries on the map: %w", year, pipeline.ErrNoData)
	}
	// Large bubbles first so small ones stay on top.
	sort.SliceStable(d.Bubbles, func(i, j int) bool { return d.Bubbles[i].Pop > d.Bubbles[j].Pop })
	return d, nil
}

func bubbleRender(pc *pipeline.Context, d bubbleData) (*scene.Scene, error) {
	proj := projection(pc.Frame)
	var maxPop float64
	var regions []string
	seen := make(map[string]bool)
	for _, b := range d.Bubbles {
		maxPop = max(maxPop, b.Pop)
		if b.Region != "" && !seen[b.Region] {
			seen[b.Region] = true
			regions = append(regions, b.Region)
		}
	}
	sort.Strings(regions)
	radius := scale.Sqrt{Domain: [2]float64{0, maxPop}, Range: [2]float64{2, 30}}
	colors := regionPalette(regions)

	sc := newScene(pc, fmt.Sprintf("%d, %s", d.Year, pc.Selection.Sex))
	sc.Legend = legendFor(regions, colors)

	for _, f := range d.World.Features {
		key := featureKey(f)
		path := proj.GeometryPath(f.Geometry)
		if key == "" || path == "" {
			continue
		}
		sc.Add(scene.Shape{
			Key:   "land:" + key,
			Kind:  scene.KindPath,
			D:     path,
			Style: scene.Style{Fill: "#eee", Stroke: "#fff", StrokeWidth: 0.5},
		})
	}
	for _, b := range d.Bubbles {
		x, y, ok := proj.Project(b.Lon, b.Lat)
		if !ok {
			continue
		}
		r := 2.0
		pop := "population unknown"
		if b.HasPop {
			r = radius.Map(b.Pop)
			pop = "population " + scene.Thousands(b.Pop)
		}
		sc.Add(scene.Shape{
			Key:        b.Location,
			Kind:       scene.KindCircle,
			X:          x,
			Y:          y,
			R:          r,
			Style:      scene.Style{Fill: colors.Color(b.Region), Stroke: "#333", StrokeWidth: 0.5, Opacity: 0.75},
			Tooltip:    fmt.Sprintf("%s\nLife expectancy: %s\n%s", b.Location, years(b.LE), pop),
			HoverScale: 1.3,
		})
	}
	return sc, nil
}
