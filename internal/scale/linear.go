// Package scale maps data values to pixel positions and colors.
//
// Scales are immutable values built per render.
package scale

import (
	"math"

	mscale "github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/vec"
)

// Linear maps a numeric domain onto a pixel range. The range may be
// inverted (for example a y axis running from bottom to top).
type Linear struct {
	Domain [2]float64
	Range  [2]float64
	Clamp  bool
}

// NewLinear returns a linear scale from [d0, d1] onto [r0, r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{Domain: [2]float64{d0, d1}, Range: [2]float64{r0, r1}}
}

func (s Linear) unit() mscale.Linear {
	return mscale.Linear{Min: s.Domain[0], Max: s.Domain[1], Clamp: s.Clamp}
}

// Map returns the pixel position of x.
func (s Linear) Map(x float64) float64 {
	return s.Range[0] + s.unit().Map(x)*(s.Range[1]-s.Range[0])
}

// Invert returns the domain value at pixel y.
func (s Linear) Invert(y float64) float64 {
	if s.Range[0] == s.Range[1] {
		return s.Domain[0]
	}
	return s.unit().Unmap((y - s.Range[0]) / (s.Range[1] - s.Range[0]))
}

// Ticks returns at most n round tick values inside the domain.
func (s Linear) Ticks(n int) []float64 {
	major, _ := s.unit().Ticks(mscale.TickOptions{Max: n})
	lo, hi := math.Min(s.Domain[0], s.Domain[1]), math.Max(s.Domain[0], s.Domain[1])
	var out []float64
	for _, t := range major {
		if t >= lo-1e-9 && t <= hi+1e-9 {
			out = append(out, t)
		}
	}
	return out
}

// Nice widens the domain to round tick values, allowing at most n ticks.
func (s Linear) Nice(n int) Linear {
	u := s.unit()
	u.Nice(mscale.TickOptions{Max: n})
	if s.Domain[0] > s.Domain[1] {
		u.Min, u.Max = u.Max, u.Min
	}
	s.Domain = [2]float64{u.Min, u.Max}
	return s
}

// Grid returns n evenly spaced domain values including both ends.
func (s Linear) Grid(n int) []float64 {
	if n <= 0 {
		return nil
	}
	return vec.Linspace(s.Domain[0], s.Domain[1], n)
}

// Extent returns the minimum and maximum of xs, skipping NaNs. ok is false
// when xs has no finite values.
func Extent(xs []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Padded widens [lo, hi] by pad on each side so that extreme points do not
// sit on the axis. A degenerate domain is widened by at least 1.
func Padded(lo, hi, pad float64) (float64, float64) {
	if pad <= 0 && lo == hi {
		pad = 1
	}
	return lo - pad, hi + pad
}

// Sqrt maps a non-negative domain to radii so that area is proportional to
// the value.
type Sqrt struct {
	Domain [2]float64
	Range  [2]float64
}

// Map returns the radius for x. Values are clamped to the domain.
func (s Sqrt) Map(x float64) float64 {
	d0, d1 := math.Sqrt(math.Max(s.Domain[0], 0)), math.Sqrt(math.Max(s.Domain[1], 0))
	v := math.Sqrt(math.Max(x, 0))
	if d0 == d1 {
		return (s.Range[0] + s.Range[1]) / 2
	}
	u := (v - d0) / (d1 - d0)
	u = math.Max(0, math.Min(1, u))
	return s.Range[0] + u*(s.Range[1]-s.Range[0])
}
