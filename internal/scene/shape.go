// Package scene holds the keyed shapes of one rendered chart and writes
// them as SVG.
package scene

import (
	"math"
)

// Kind is the type of a shape.
type Kind string

const (
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindPath   Kind = "path"
	KindLine   Kind = "line"
	KindText   Kind = "text"
)

// Style is the presentation of a shape.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64 // 0 means opaque
	FontSize    float64
	Anchor      string // text-anchor
	Class       string
}

// Shape is one keyed mark. Which geometry fields apply depends on Kind:
// rect uses X, Y, W, H; circle uses X, Y, R; line uses X, Y, X2, Y2; path
// uses D; text uses X, Y and Text.
type Shape struct {
	Key  string
	Kind Kind

	X, Y   float64
	W, H   float64
	R      float64
	X2, Y2 float64
	D      string
	Text   string

	Style Style

	// Tooltip is shown on hover. Shapes without one are not interactive.
	Tooltip    string
	HoverFill  string
	HoverScale float64
}

// Interactive reports whether the shape takes part in hover.
func (s Shape) Interactive() bool {
	return s.Tooltip != ""
}

// Bounds returns the shape's bounding box, widened by half its stroke.
func (s Shape) Bounds() (x0, y0, x1, y1 float64) {
	half := s.Style.StrokeWidth / 2
	switch s.Kind {
	case KindRect:
		x0, y0 = math.Min(s.X, s.X+s.W), math.Min(s.Y, s.Y+s.H)
		x1, y1 = math.Max(s.X, s.X+s.W), math.Max(s.Y, s.Y+s.H)
	case KindCircle:
		x0, y0, x1, y1 = s.X-s.R, s.Y-s.R, s.X+s.R, s.Y+s.R
	case KindLine:
		x0, y0 = math.Min(s.X, s.X2), math.Min(s.Y, s.Y2)
		x1, y1 = math.Max(s.X, s.X2), math.Max(s.Y, s.Y2)
	case KindPath:
		x0, y0, x1, y1 = pathBounds(s.D)
	case KindText:
		w := TextWidth(s.Text, s.Style.FontSize)
		x0, y0, x1, y1 = s.X, s.Y-s.Style.FontSize, s.X+w, s.Y
		switch s.Style.Anchor {
		case "middle":
			x0, x1 = x0-w/2, x1-w/2
		case "end":
			x0, x1 = x0-w, x1-w
		}
	}
	return x0 - half, y0 - half, x1 + half, y1 + half
}

// Contains reports whether (px, py) hits the shape. Filled paths use the
// even-odd rule over their subpaths; stroked paths also hit within half
// their stroke width. Text is never hit.
func (s Shape) Contains(px, py float64) bool {
	switch s.Kind {
	case KindCircle:
		dx, dy := px-s.X, py-s.Y
		return dx*dx+dy*dy <= s.R*s.R
	case KindLine:
		return segmentDistance(px, py, s.X, s.Y, s.X2, s.Y2) <= math.Max(s.Style.StrokeWidth/2, 3)
	case KindPath:
		subs := flattenPath(s.D)
		if s.Style.Fill != "none" && evenOdd(subs, px, py) {
			return true
		}
		return s.Style.StrokeWidth > 0 && strokeDistance(subs, px, py) <= s.Style.StrokeWidth/2
	case KindText:
		return false
	}
	x0, y0, x1, y1 := s.Bounds()
	return px >= x0 && px <= x1 && py >= y0 && py <= y1
}

func segmentDistance(px, py, x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = math.Max(0, math.Min(1, ((px-x0)*dx+(py-y0)*dy)/l2))
	}
	cx, cy := x0+t*dx, y0+t*dy
	return math.Hypot(px-cx, py-cy)
}

// pathBounds is the bounding box of the flattened path.
func pathBounds(d string) (x0, y0, x1, y1 float64) {
	x0, y0 = math.Inf(1), math.Inf(1)
	x1, y1 = math.Inf(-1), math.Inf(-1)
	for _, sp := range flattenPath(d) {
		for _, p := range sp.pts {
			x0, y0 = math.Min(x0, p[0]), math.Min(y0, p[1])
			x1, y1 = math.Max(x1, p[0]), math.Max(y1, p[1])
		}
	}
	if math.IsInf(x0, 1) {
		return 0, 0, 0, 0
	}
	return x0, y0, x1, y1
}
