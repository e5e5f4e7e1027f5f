package transform

import (
	"github.com/aclements/go-moremath/stats"
)

// DefaultBandwidth is the violin chart's kernel bandwidth in years.
const DefaultBandwidth = 7.0

// DefaultGridTicks is the number of grid points requested from the value axis.
const DefaultGridTicks = 50

// DensityPoint is one evaluated density.
type DensityPoint struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// KDE estimates the density of values at each grid point using the
// Epanechnikov kernel k(u) = 0.75(1-(u/h)^2)/h for |u/h| <= 1. The result
// is the mean kernel value over all samples, so it is symmetric:
// KDE(vs, [x], h) equals KDE(-vs, [-x], h). Empty input yields nil.
func KDE(values, grid []float64, bandwidth float64) []DensityPoint {
	if len(values) == 0 || len(grid) == 0 {
		return nil
	}
	if bandwidth <= 0 {
		bandwidth = DefaultBandwidth
	}
	kde := stats.KDE{
		Sample:    stats.Sample{Xs: values},
		Kernel:    stats.EpanechnikovKernel,
		Bandwidth: bandwidth,
	}
	out := make([]DensityPoint, len(grid))
	for i, x := range grid {
		out[i] = DensityPoint{X: x, Density: kde.PDF(x)}
	}
	return out
}

// MaxDensity returns the largest density in pts, or 0.
func MaxDensity(pts []DensityPoint) float64 {
	var m float64
	for _, p := range pts {
		if p.Density > m {
			m = p.Density
		}
	}
	return m
}
