package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/sample"
	"github.com/vizwizards/lifeviz/internal/scale"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

func sampleTables(t *testing.T) map[string]*dataset.Table {
	t.Helper()
	tables, err := sample.Tables()
	if err != nil {
		t.Fatalf("Failed to parse sample tables: %v", err)
	}
	return tables
}

func sampleLoader(t *testing.T, world *geojson.FeatureCollection) pipeline.StaticLoader {
	t.Helper()
	return pipeline.StaticLoader{
		TableSet: sampleTables(t),
		GeoSet:   map[string]*geojson.FeatureCollection{dataset.NameWorld: world},
	}
}

func newChart(t *testing.T, kind string, loader pipeline.Loader) *pipeline.Chart {
	t.Helper()
	def, err := Default().Lookup(kind)
	if err != nil {
		t.Fatalf("Lookup(%q) error = %v", kind, err)
	}
	return pipeline.NewChart(def, loader, pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	want := []string{"flow", "bullet", "choropleth", "bubble", "heatmap", "box", "violin", "radar",
		"stacked", "line", "beeswarm", "errorbar", "slope", "scatter", "global"}
	got := r.Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %d kinds", got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := r.Lookup("pie"); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("Lookup(pie) error = %v, want ErrUnknownChart", err)
	}
	if got := len(r.Sources()); got != 5 {
		t.Errorf("Sources() = %v, want all five datasets", r.Sources())
	}
	for _, info := range r.Infos() {
		if info.Title == "" || info.Description == "" {
			t.Errorf("%s: missing title or description", info.Kind)
		}
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	if _, err := NewRegistry(Flow(), Flow()); err == nil {
		t.Error("NewRegistry() with duplicate kinds should fail")
	}
}

func TestEveryChartRenders(t *testing.T) {
	loader := sampleLoader(t, sample.World())
	for _, kind := range Default().Kinds() {
		t.Run(kind, func(t *testing.T) {
			sel := transform.Selection{Year: 2021}
			if kind == "slope" {
				sel = transform.Selection{Year: 2019, EndYear: 2021}
			}
			res, err := newChart(t, kind, loader).Update(context.Background(), sel)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			sc := res.Scene
			if sc.Len() == 0 {
				t.Fatal("scene has no shapes")
			}
			var interactive int
			for _, sh := range sc.Shapes() {
				if sh.Key == "" {
					t.Errorf("shape without key: %+v", sh)
				}
				if sh.Interactive() {
					interactive++
				}
				for _, v := range []float64{sh.X, sh.Y, sh.W, sh.H, sh.R, sh.X2, sh.Y2} {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Errorf("shape %q has non-finite geometry", sh.Key)
					}
				}
			}
			if interactive == 0 {
				t.Error("scene has no hoverable shapes")
			}
			var buf bytes.Buffer
			if err := sc.WriteSVG(&buf); err != nil {
				t.Fatalf("WriteSVG() error = %v", err)
			}
			if strings.Contains(buf.String(), "NaN") {
				t.Error("SVG contains NaN")
			}
		})
	}
}

func TestEveryChartNoDataYear(t *testing.T) {
	loader := sampleLoader(t, sample.World())
	for _, kind := range Default().Kinds() {
		t.Run(kind, func(t *testing.T) {
			res, err := newChart(t, kind, loader).Update(context.Background(), transform.Selection{Year: 1900, EndYear: 1901})
			if !errors.Is(err, pipeline.ErrNoData) {
				t.Fatalf("Update() error = %v, want ErrNoData", err)
			}
			if res.Scene.Len() != 0 {
				t.Errorf("shapes = %d, want 0", res.Scene.Len())
			}
			if res.Scene.Message != "no data for selection" {
				t.Errorf("Message = %q", res.Scene.Message)
			}
		})
	}
}

func TestChartLoadFailure(t *testing.T) {
	loader := pipeline.StaticLoader{TableSet: sampleTables(t)}
	_, err := newChart(t, "choropleth", loader).Update(context.Background(), transform.Selection{})
	if !errors.Is(err, pipeline.ErrLoad) {
		t.Errorf("Update() without geometry error = %v, want ErrLoad", err)
	}
}

func TestFlowLinksValid(t *testing.T) {
	sel, _ := transform.Selection{Year: 2021}.Normalize()
	pc := pipeline.NewContext("flow", sel, sampleTables(t))
	d, err := flowTransform(pc)
	if err != nil {
		t.Fatalf("flowTransform() error = %v", err)
	}
	if err := d.Graph.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	// Japan's negative land use is dropped, not drawn.
	if d.Graph.Dropped == 0 {
		t.Error("Dropped = 0, want the negative land-use edge dropped")
	}
	for _, name := range []string{"Russia", "United States", transform.SinkFossil, transform.SinkLandUse} {
		if d.Graph.NodeIndex(name) < 0 {
			t.Errorf("node %q missing", name)
		}
	}
}

func TestRadarReconcilesSelection(t *testing.T) {
	loader := sampleLoader(t, sample.World())
	res, err := newChart(t, "radar", loader).Update(context.Background(),
		transform.Selection{Year: 2021, Countries: []string{"russia", "United States", "Atlantis"}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	for _, key := range []string{"Russian Federation", "United States of America"} {
		if _, ok := res.Scene.Get(key); !ok {
			t.Errorf("missing polygon %q (keys %v)", key, res.Scene.Keys())
		}
	}
	if _, ok := res.Scene.Get("Atlantis"); ok {
		t.Error("unmatched country was drawn")
	}
}

func TestRadarTruncatesSelection(t *testing.T) {
	loader := sampleLoader(t, sample.World())
	var countries []string
	for _, c := range sample.Countries {
		countries = append(countries, c.WHOName)
	}
	countries = append(countries, "Atlantis")
	res, err := newChart(t, "radar", loader).Update(context.Background(), transform.Selection{Year: 2021, Countries: countries})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Truncated || len(res.Selection.Countries) != transform.MaxCountries {
		t.Errorf("Truncated = %v with %d countries, want truncation to %d", res.Truncated, len(res.Selection.Countries), transform.MaxCountries)
	}
}

func TestChoroplethNoDataFill(t *testing.T) {
	world := sample.World()
	atlantis := geojson.NewPolygonFeature([][][]float64{{{-30, 30}, {-25, 30}, {-25, 35}, {-30, 30}}})
	atlantis.ID = "ATL"
	atlantis.SetProperty("name", "Atlantis")
	world.AddFeature(atlantis)

	res, err := newChart(t, "choropleth", sampleLoader(t, world)).Update(context.Background(), transform.Selection{Year: 2021})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	sh, ok := res.Scene.Get("ATL")
	if !ok {
		t.Fatalf("no shape for Atlantis (keys %v)", res.Scene.Keys())
	}
	if sh.Style.Fill != scale.NoDataColor || sh.Tooltip != "Atlantis: no data" {
		t.Errorf("Atlantis fill %q tooltip %q, want no-data styling", sh.Style.Fill, sh.Tooltip)
	}
	fr, ok := res.Scene.Get("FRA")
	if !ok || fr.Style.Fill == scale.NoDataColor {
		t.Errorf("France shape = %+v, want a ratio color", fr)
	}
	if !strings.Contains(fr.Tooltip, "Ratio: ") {
		t.Errorf("France tooltip = %q", fr.Tooltip)
	}
}

func TestBeeswarmCirclesDoNotOverlap(t *testing.T) {
	res, err := newChart(t, "beeswarm", sampleLoader(t, sample.World())).Update(context.Background(), transform.Selection{Year: 2021})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	var circles []scene.Shape
	for _, sh := range res.Scene.Shapes() {
		if sh.Kind == scene.KindCircle {
			circles = append(circles, sh)
		}
	}
	if len(circles) != len(sample.Countries) {
		t.Fatalf("circles = %d, want %d", len(circles), len(sample.Countries))
	}
	for i := range circles {
		for j := i + 1; j < len(circles); j++ {
			a, b := circles[i], circles[j]
			if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < a.R+b.R-1e-6 {
				t.Errorf("%s and %s overlap (distance %.2f, radii %.2f + %.2f)", a.Key, b.Key, d, a.R, b.R)
			}
		}
	}
}

func TestSlopeNeedsTwoYears(t *testing.T) {
	_, err := newChart(t, "slope", sampleLoader(t, sample.World())).Update(context.Background(),
		transform.Selection{Year: 2021, EndYear: 2021})
	if !errors.Is(err, pipeline.ErrNoData) {
		t.Errorf("Update() error = %v, want ErrNoData", err)
	}
}

func TestStackedSegmentsSumToTotal(t *testing.T) {
	sel, _ := transform.Selection{Year: 2021, Region: "Africa"}.Normalize()
	def, _ := Default().Lookup("stacked")
	stages := def.(pipeline.Stages[stackData])
	d, err := stages.Transform(pipeline.NewContext("stacked", sel, sampleTables(t)))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(d.Rows) != 1 || d.Rows[0].Continent != "Africa" {
		t.Fatalf("rows = %+v, want Africa only", d.Rows)
	}
	var sum float64
	for _, s := range d.Rows[0].Segments {
		sum += s.Value
	}
	if math.Abs(sum-d.Rows[0].Total) > 1e-9 {
		t.Errorf("segments sum to %v, total %v", sum, d.Rows[0].Total)
	}
}

func ExampleRegistry_Kinds() {
	fmt.Println(len(Default().Kinds()))
	// Output: 15
}
