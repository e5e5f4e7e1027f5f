// Package charts declares the chart catalogue. Each chart is a transform and
// a render function plugged into the shared pipeline.
package charts

import (
	"errors"
	"fmt"

	"github.com/vizwizards/lifeviz/internal/pipeline"
)

// ErrUnknownChart is returned for a kind that is not registered.
var ErrUnknownChart = errors.New("unknown chart kind")

// Registry maps chart kinds to definitions, keeping registration order.
type Registry struct {
	defs  map[string]pipeline.Definition
	order []string
}

// NewRegistry registers defs. Kinds must be unique and non-empty.
func NewRegistry(defs ...pipeline.Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]pipeline.Definition, len(defs))}
	for _, d := range defs {
		kind := d.Describe().Kind
		if kind == "" {
			return nil, fmt.Errorf("chart definition without kind")
		}
		if _, dup := r.defs[kind]; dup {
			return nil, fmt.Errorf("duplicate chart kind %q", kind)
		}
		r.defs[kind] = d
		r.order = append(r.order, kind)
	}
	return r, nil
}

// Default returns the full catalogue.
func Default() *Registry {
	r, err := NewRegistry(
		Flow(),
		Bullet(),
		Choropleth(),
		Bubble(),
		Heatmap(),
		Box(),
		Violin(),
		Radar(),
		Stacked(),
		Line(),
		Beeswarm(),
		ErrorBar(),
		Slope(),
		Scatter(),
		Global(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition for kind.
func (r *Registry) Lookup(kind string) (pipeline.Definition, error) {
	d, ok := r.defs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
	return d, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	return append([]string(nil), r.order...)
}

// Infos describes every registered chart.
func (r *Registry) Infos() []pipeline.Info {
	out := make([]pipeline.Info, len(r.order))
	for i, k := range r.order {
		out[i] = r.defs[k].Describe()
	}
	return out
}

// Sources returns every dataset name some chart reads, geometry included,
// in first-use order.
func (r *Registry) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, k := range r.order {
		info := r.defs[k].Describe()
		for _, s := range info.Sources {
			add(s)
		}
		add(info.Geo)
	}
	return out
}
