package layout

import (
	"math"
	"sort"
)

// Bee is one circle to place along an axis.
type Bee struct {
	Key string
	X   float64
	R   float64
}

// Placed is a bee with its dodge offset from the axis.
type Placed struct {
	Bee
	Y float64
}

// Beeswarm dodges circles perpendicular to the axis so that none overlap.
// Circles are placed in X order (ties by key); each takes the offset of
// smallest magnitude that clears all circles placed so far, preferring the
// positive side on ties. The result is in input order and deterministic.
func Beeswarm(bees []Bee, padding float64) []Placed {
	order := make([]int, len(bees))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ba, bb := bees[order[a]], bees[order[b]]
		if ba.X != bb.X {
			return ba.X < bb.X
		}
		return ba.Key < bb.Key
	})

	out := make([]Placed, len(bees))
	var placed []Placed
	for _, i := range order {
		b := bees[i]
		candidates := []float64{0}
		for _, p := range placed {
			d := b.R + p.R + padding
			dx := b.X - p.X
			if math.Abs(dx) >= d {
				continue
			}
			dy := math.Sqrt(d*d - dx*dx)
			candidates = append(candidates, p.Y+dy, p.Y-dy)
		}
		sort.Slice(candidates, func(a, c int) bool {
			ya, yc := math.Abs(candidates[a]), math.Abs(candidates[c])
			if ya != yc {
				return ya < yc
			}
			return candidates[a] > candidates[c]
		})

		y := candidates[0]
		for _, cy := range candidates {
			if !collides(b, cy, placed, padding) {
				y = cy
				break
			}
		}
		p := Placed{Bee: b, Y: y}
		placed = append(placed, p)
		out[i] = p
	}
	return out
}

func collides(b Bee, y float64, placed []Placed, padding float64) bool {
	for _, p := range placed {
		d := b.R + p.R + padding
		dx, dy := b.X-p.X, y-p.Y
		// Small tolerance so touching circles do not count as overlapping.
		if dx*dx+dy*dy < d*d-1e-6 {
			return true
		}
	}
	return false
}

// Overlaps reports whether any two placed circles overlap by more than tol.
func Overlaps(ps []Placed, tol float64) bool {
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := ps[i].R + ps[j].R
			dx, dy := ps[i].X-ps[j].X, ps[i].Y-ps[j].Y
			if math.Sqrt(dx*dx+dy*dy) < d-tol {
				return true
			}
		}
	}
	return false
}
