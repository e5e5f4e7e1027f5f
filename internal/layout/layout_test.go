package layout

import (
	"errors"
	"math"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/transform"
)

func TestSankeyLayout(t *testing.T) {
	g := transform.BuildFlow([]transform.FlowInput{
		{Source: "Asia", Target: "China", Value: 10},
		{Source: "Asia", Target: "India", Value: 5},
		{Source: "China", Target: "Fossil", Value: 9},
		{Source: "China", Target: "Land", Value: 1},
		{Source: "India", Target: "Fossil", Value: 5},
		{Source: "Europe", Target: "Fossil", Value: 4}, // sink reached from column 0
	})
	s := Sankey{Width: 600, Height: 400, NodeWidth: 15, NodePadding: 10}
	res, err := s.Layout(g)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Columns != 3 {
		t.Errorf("Columns = %d, want 3", res.Columns)
	}

	byName := map[string]SankeyNode{}
	for _, n := range res.Nodes {
		byName[n.Name] = n
	}
	if byName["Fossil"].Column != 2 || byName["Land"].Column != 2 {
		t.Errorf("sinks not in last column: %+v", byName)
	}
	if byName["Europe"].Column != 0 {
		t.Errorf("Europe column = %d, want 0", byName["Europe"].Column)
	}
	if got := byName["Fossil"].X1; math.Abs(got-600) > 1e-9 {
		t.Errorf("last column X1 = %v, want 600", got)
	}
	if byName["China"].Value != 10 {
		t.Errorf("China value = %v, want max(in, out) = 10", byName["China"].Value)
	}

	// Node heights are proportional to value.
	china := byName["China"].Y1 - byName["China"].Y0
	india := byName["India"].Y1 - byName["India"].Y0
	if math.Abs(china-2*india) > 1e-9 {
		t.Errorf("China height %v, India height %v, want 2:1", china, india)
	}
	for _, n := range res.Nodes {
		if n.Y0 < -1e-9 || n.Y1 > 400+1e-9 {
			t.Errorf("node %s out of bounds: %v..%v", n.Name, n.Y0, n.Y1)
		}
	}
	for _, l := range res.Links {
		if !strings.HasPrefix(res.LinkPath(l), "M") {
			t.Errorf("LinkPath() = %q", res.LinkPath(l))
		}
	}
}

func TestSankeyLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		g    transform.FlowGraph
	}{
		{"cycle", transform.BuildFlow([]transform.FlowInput{
			{Source: "a", Target: "b", Value: 1},
			{Source: "b", Target: "a", Value: 1},
		})},
		{"bad index", transform.FlowGraph{
			Nodes: []transform.Node{{Name: "a"}},
			Links: []transform.Link{{Source: 0, Target: 2, Value: 1}},
		}},
		{"empty", transform.FlowGraph{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sankey{Width: 100, Height: 100}.Layout(tt.g)
			if !errors.Is(err, ErrLayout) {
				t.Errorf("Layout() error = %v, want ErrLayout", err)
			}
		})
	}
}

func TestProjection(t *testing.T) {
	for _, kind := range []ProjectionKind{NaturalEarth1, Equirectangular} {
		t.Run(string(kind), func(t *testing.T) {
			p := Fit(kind, 960, 500)
			x, y, ok := p.Project(0, 0)
			if !ok || math.Abs(x-480) > 1e-9 || math.Abs(y-250) > 1e-9 {
				t.Errorf("Project(0, 0) = %v, %v, %v, want center", x, y, ok)
			}
			for _, pt := range [][2]float64{{-180, 0}, {180, 0}, {0, 90}, {0, -90}} {
				x, y, ok := p.Project(pt[0], pt[1])
				if !ok || x < -1e-6 || x > 960+1e-6 || y < -1e-6 || y > 500+1e-6 {
					t.Errorf("Project(%v) = %v, %v outside the viewport", pt, x, y)
				}
			}
			if _, _, ok := p.Project(200, 0); ok {
				t.Errorf("Project(200, 0) ok = true, want false")
			}
			if _, _, ok := p.Project(math.NaN(), 0); ok {
				t.Errorf("Project(NaN, 0) ok = true, want false")
			}
		})
	}
}

func TestGeometryPathAndCentroid(t *testing.T) {
	square := [][][]float64{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	g := geojson.NewPolygonGeometry(square)
	p := Fit(Equirectangular, 360, 180)

	path := p.GeometryPath(g)
	if !strings.HasPrefix(path, "M") || !strings.HasSuffix(path, "Z") {
		t.Errorf("GeometryPath() = %q", path)
	}
	lon, lat, ok := Centroid(g)
	if !ok || lon != 5 || lat != 5 {
		t.Errorf("Centroid() = %v, %v, %v, want 5, 5", lon, lat, ok)
	}

	multi := geojson.NewMultiPolygonGeometry(
		[][][]float64{{{0, 0}, {1, 0}, {0, 1}, {0, 0}}},
		square,
	)
	if lon, _, _ := Centroid(multi); lon != 5 {
		t.Errorf("Centroid(multi) lon = %v, want the larger polygon's 5", lon)
	}
	if p.GeometryPath(geojson.NewPointGeometry([]float64{1, 2})) != "" {
		t.Errorf("GeometryPath(point) != \"\"")
	}
	if p.RingPath([][]float64{{0, 0}, {500, 0}, {0, 1}}) != "" {
		t.Errorf("RingPath with an unprojectable point should drop below three points")
	}
}

func TestBeeswarm(t *testing.T) {
	var bees []Bee
	for i := 0; i < 30; i++ {
		bees = append(bees, Bee{Key: string(rune('a' + i)), X: float64(i % 5), R: 4})
	}
	placed := Beeswarm(bees, 1)
	if len(placed) != len(bees) {
		t.Fatalf("len = %d, want %d", len(placed), len(bees))
	}
	if Overlaps(placed, 1e-3) {
		t.Errorf("Beeswarm() produced overlapping circles")
	}
	for i, p := range placed {
		if p.Key != bees[i].Key || p.X != bees[i].X {
			t.Errorf("placed[%d] = %+v, want input order", i, p)
		}
	}
	again := Beeswarm(bees, 1)
	for i := range placed {
		if placed[i].Y != again[i].Y {
			t.Fatalf("Beeswarm() not deterministic at %d", i)
		}
	}
}

func TestRadar(t *testing.T) {
	r := Radar{CX: 100, CY: 100, Radius: 50, Axes: 4}
	x, y := r.Point(0, 1)
	if math.Abs(x-100) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("Point(0, 1) = %v, %v, want straight up", x, y)
	}
	x, y = r.Point(1, 1)
	if math.Abs(x-150) > 1e-9 || math.Abs(y-100) > 1e-9 {
		t.Errorf("Point(1, 1) = %v, %v, want right", x, y)
	}
	if got := r.Polygon([]float64{1, 1, 1, 1}); !strings.HasSuffix(got, "Z") {
		t.Errorf("Polygon() = %q", got)
	}
}
