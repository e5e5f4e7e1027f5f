package layout

import (
	"math"
	"strings"
)

// Radar places values on evenly spaced axes around a center. Axis 0 points
// straight up and axes proceed clockwise.
type Radar struct {
	CX, CY float64
	Radius float64
	Axes   int
}

// Angle returns the angle of axis i in radians.
func (r Radar) Angle(i int) float64 {
	if r.Axes == 0 {
		return 0
	}
	return 2*math.Pi*float64(i)/float64(r.Axes) - math.Pi/2
}

// Point returns the position at fraction u of the radius along axis i.
func (r Radar) Point(i int, u float64) (x, y float64) {
	a := r.Angle(i)
	return r.CX + u*r.Radius*math.Cos(a), r.CY + u*r.Radius*math.Sin(a)
}

// Polygon returns closed SVG path data through fractions us, one per axis.
func (r Radar) Polygon(us []float64) string {
	var b strings.Builder
	for i, u := range us {
		x, y := r.Point(i, u)
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString("L")
		}
		b.WriteString(num(x))
		b.WriteString(",")
		b.WriteString(num(y))
	}
	if len(us) > 0 {
		b.WriteString("Z")
	}
	return b.String()
}
