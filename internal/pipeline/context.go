// Package pipeline drives a chart through load, decode, transform, layout
// and render, and turns any failure into an explicit empty scene.
package pipeline

import (
	"fmt"
	"log/slog"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// Margin is the space around a chart's plot area.
type Margin struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Frame is the outer size of a chart and its margins.
type Frame struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Margin Margin  `yaml:"margin" json:"margin"`
}

// DefaultFrame is used when no frame is configured.
var DefaultFrame = Frame{
	Width:  960,
	Height: 500,
	Margin: Margin{Top: 50, Right: 160, Bottom: 50, Left: 70},
}

// InnerWidth is the plot width inside the margins.
func (f Frame) InnerWidth() float64 {
	return f.Width - f.Margin.Left - f.Margin.Right
}

// InnerHeight is the plot height inside the margins.
func (f Frame) InnerHeight() float64 {
	return f.Height - f.Margin.Top - f.Margin.Bottom
}

// Context carries one update's inputs through the stages. A fresh Context is
// built for every update and never shared between charts.
type Context struct {
	Chart     string
	Selection transform.Selection
	Truncated bool
	Frame     Frame
	Logger    *slog.Logger
	Names     *reconcile.Table

	tables map[string]*dataset.Table
	geo    map[string]*geojson.FeatureCollection
	obs    map[string][]record.Observation
}

// NewContext returns a context over already loaded tables.
func NewContext(chart string, sel transform.Selection, tables map[string]*dataset.Table) *Context {
	return &Context{
		Chart:     chart,
		Selection: sel,
		Frame:     DefaultFrame,
		Logger:    slog.Default(),
		Names:     reconcile.New(nil),
		tables:    tables,
		geo:       make(map[string]*geojson.FeatureCollection),
	}
}

// Key returns the folded join key of a location name.
func (c *Context) Key(name string) string {
	return c.Names.Key(name)
}

// Table returns a loaded table.
func (c *Context) Table(name string) (*dataset.Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &StageError{Chart: c.Chart, Stage: StageLoad, Err: fmt.Errorf("%w: dataset %q was not loaded", ErrLoad, name)}
	}
	return t, nil
}

// Geo returns a loaded feature collection.
func (c *Context) Geo(name string) (*geojson.FeatureCollection, error) {
	fc, ok := c.geo[name]
	if !ok {
		return nil, &StageError{Chart: c.Chart, Stage: StageLoad, Err: fmt.Errorf("%w: geometry %q was not loaded", ErrLoad, name)}
	}
	return fc, nil
}

func (c *Context) decoded(name string, rep record.Report, err error) error {
	if err != nil {
		return &StageError{Chart: c.Chart, Stage: StageDecode, Err: err}
	}
	if rep.Skipped > 0 {
		c.Logger.Debug("skipped records",
			"chart", c.Chart,
			"dataset", name,
			"kept", rep.Kept,
			"skipped", rep.Skipped,
			"reasons", rep.ReasonList())
	}
	return nil
}

// Observations decodes a WHO table once per context.
func (c *Context) Observations(name string) ([]record.Observation, error) {
	if obs, ok := c.obs[name]; ok {
		return obs, nil
	}
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	obs, rep, err := record.DecodeObservations(t)
	if err := c.decoded(name, rep, err); err != nil {
		return nil, err
	}
	if c.obs == nil {
		c.obs = make(map[string][]record.Observation)
	}
	c.obs[name] = obs
	return obs, nil
}

// Emissions decodes one measure column of an OWID table.
func (c *Context) Emissions(name, measure string) ([]record.Emission, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	es, rep, err := record.DecodeEmissions(t, measure)
	if err := c.decoded(name, rep, err); err != nil {
		return nil, err
	}
	return es, nil
}

// Memberships decodes a country/continent table.
func (c *Context) Memberships(name string) ([]record.Membership, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	ms, rep, err := record.DecodeMemberships(t)
	if err := c.decoded(name, rep, err); err != nil {
		return nil, err
	}
	return ms, nil
}

// Population decodes a population table.
func (c *Context) Population(name string) ([]record.Population, error) {
	t, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	ps, rep, err := record.DecodePopulation(t)
	if err := c.decoded(name, rep, err); err != nil {
		return nil, err
	}
	return ps, nil
}
