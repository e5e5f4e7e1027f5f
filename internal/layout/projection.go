package layout

import (
	"fmt"
	"math"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// ProjectionKind names a supported map projection.
type ProjectionKind string

const (
	NaturalEarth1   ProjectionKind = "naturalearth1"
	Equirectangular ProjectionKind = "equirectangular"
)

// ParseProjection validates a projection name.
func ParseProjection(s string) (ProjectionKind, error) {
	switch ProjectionKind(strings.ToLower(s)) {
	case NaturalEarth1, "":
		return NaturalEarth1, nil
	case Equirectangular:
		return Equirectangular, nil
	}
	return "", fmt.Errorf("unknown projection %q (valid: %s, %s)", s, NaturalEarth1, Equirectangular)
}

// Projection maps longitude/latitude in degrees to screen coordinates.
type Projection struct {
	Kind      ProjectionKind
	Scale     float64
	Translate [2]float64
}

func (p Projection) raw(lambda, phi float64) (float64, float64) {
	if p.Kind == Equirectangular {
		return lambda, phi
	}
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y
}

// Project returns the screen position of (lon, lat). ok is false for
// missing or out-of-range coordinates.
func (p Projection) Project(lon, lat float64) (x, y float64, ok bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lon) > 180 || math.Abs(lat) > 90 {
		return 0, 0, false
	}
	rx, ry := p.raw(lon*math.Pi/180, lat*math.Pi/180)
	return p.Translate[0] + p.Scale*rx, p.Translate[1] - p.Scale*ry, true
}

// Fit returns a projection of kind that fits the whole globe into
// width x height, centered.
func Fit(kind ProjectionKind, width, height float64) Projection {
	p := Projection{Kind: kind, Scale: 1}
	xmax, _ := p.raw(math.Pi, 0)
	_, ymax := p.raw(0, math.Pi/2)
	scale := math.Min(width/(2*xmax), height/(2*ymax))
	return Projection{Kind: kind, Scale: scale, Translate: [2]float64{width / 2, height / 2}}
}

// RingPath projects one ring into an SVG subpath. Unprojectable points are
// skipped; rings with fewer than three drawable points yield "".
func (p Projection) RingPath(ring [][]float64) string {
	var b strings.Builder
	count := 0
	for _, pt := range ring {
		if len(pt) < 2 {
			continue
		}
		x, y, ok := p.Project(pt[0], pt[1])
		if !ok {
			continue
		}
		if count == 0 {
			b.WriteString("M")
		} else {
			b.WriteString("L")
		}
		b.WriteString(num(x))
		b.WriteString(",")
		b.WriteString(num(y))
		count++
	}
	if count < 3 {
		return ""
	}
	b.WriteString("Z")
	return b.String()
}

// GeometryPath projects a Polygon or MultiPolygon into SVG path data. Other
// geometry types yield "".
func (p Projection) GeometryPath(g *geojson.Geometry) string {
	if g == nil {
		return ""
	}
	var polys [][][][]float64
	switch {
	case g.IsPolygon():
		polys = [][][][]float64{g.Polygon}
	case g.IsMultiPolygon():
		polys = g.MultiPolygon
	default:
		return ""
	}
	var b strings.Builder
	for _, poly := range polys {
		for _, ring := range poly {
			b.WriteString(p.RingPath(ring))
		}
	}
	return b.String()
}

// Centroid averages the vertices of a feature's outer ring. For a
// MultiPolygon the polygon with the longest outer ring is used. ok is false
// when the geometry has no usable ring.
func Centroid(g *geojson.Geometry) (lon, lat float64, ok bool) {
	if g == nil {
		return 0, 0, false
	}
	var ring [][]float64
	switch {
	case g.IsPolygon():
		if len(g.Polygon) > 0 {
			ring = g.Polygon[0]
		}
	case g.IsMultiPolygon():
		for _, poly := range g.MultiPolygon {
			if len(poly) > 0 && len(poly[0]) > len(ring) {
				ring = poly[0]
			}
		}
	case g.IsPoint():
		if len(g.Point) >= 2 {
			return g.Point[0], g.Point[1], true
		}
	}
	// A closed ring repeats its first vertex.
	if n := len(ring); n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
		ring = ring[:n-1]
	}
	var sx, sy float64
	var n int
	for _, pt := range ring {
		if len(pt) < 2 || math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
			continue
		}
		sx += pt[0]
		sy += pt[1]
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / float64(n), sy / float64(n), true
}
