package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// Info describes a chart kind.
type Info struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
	Geo         string   `json:"geo,omitempty"`
}

// Definition is one chart plugged into the pipeline.
type Definition interface {
	Describe() Info
	// Build runs the chart's transform, layout and render stages.
	Build(pc *Context) (*scene.Scene, error)
}

// Stages is a Definition made of a transform producing D and a render
// consuming it. Render builds the scales and layout as well as the shapes.
type Stages[D any] struct {
	Info
	Transform func(pc *Context) (D, error)
	Render    func(pc *Context, data D) (*scene.Scene, error)
}

// Describe returns the chart info.
func (s Stages[D]) Describe() Info {
	return s.Info
}

// Build runs Transform then Render, tagging failures with their stage.
func (s Stages[D]) Build(pc *Context) (*scene.Scene, error) {
	data, err := s.Transform(pc)
	if err != nil {
		return nil, stageError(s.Kind, StageTransform, err)
	}
	sc, err := s.Render(pc, data)
	if err != nil {
		stage := StageRender
		if errors.Is(err, ErrLayout) {
			stage = StageLayout
		}
		return nil, stageError(s.Kind, stage, err)
	}
	return sc, nil
}

// Chart is one chart instance. It owns its current scene and selection and
// shares nothing with other instances. Update may be called concurrently;
// only the newest update installs its scene.
type Chart struct {
	def    Definition
	loader Loader
	frame  Frame
	logger *slog.Logger
	names  *reconcile.Table

	mu        sync.Mutex
	gen       uint64
	current   *scene.Scene
	selection transform.Selection
	err       error
}

// ChartOption configures a Chart.
type ChartOption func(*Chart)

// WithFrame sets the chart size and margins.
func WithFrame(f Frame) ChartOption {
	return func(c *Chart) {
		if f.Width > 0 && f.Height > 0 {
			c.frame = f
		}
	}
}

// WithLogger sets the logger for stage diagnostics.
func WithLogger(l *slog.Logger) ChartOption {
	return func(c *Chart) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNames sets the name reconciliation table.
func WithNames(t *reconcile.Table) ChartOption {
	return func(c *Chart) {
		if t != nil {
			c.names = t
		}
	}
}

// NewChart creates a chart instance.
func NewChart(def Definition, loader Loader, opts ...ChartOption) *Chart {
	c := &Chart{
		def:    def,
		loader: loader,
		frame:  DefaultFrame,
		logger: slog.Default(),
		names:  reconcile.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of one update.
type Result struct {
	Scene      *scene.Scene
	Selection  transform.Selection
	Truncated  bool
	Generation uint64
	// Installed is false when a newer update finished first.
	Installed bool
}

// Kind returns the chart kind.
func (c *Chart) Kind() string {
	return c.def.Describe().Kind
}

// Update re-runs the pipeline for sel and replaces the scene. On failure the
// installed scene has no shapes and shows Message(err), and err is returned.
func (c *Chart) Update(ctx context.Context, sel transform.Selection) (Result, error) {
	info := c.def.Describe()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	sel, truncated := sel.Normalize()
	if truncated {
		c.logger.Warn("country selection truncated",
			"chart", info.Kind,
			"max", transform.MaxCountries)
	}

	sc, err := c.run(ctx, info, sel, truncated)
	if err != nil {
		c.logger.Error("chart update failed",
			"chart", info.Kind,
			"stage", FailedStage(err),
			"generation", gen,
			"error", err)
		sc = scene.Empty(c.frame.Width, c.frame.Height, info.Title, Message(err))
	}

	res := Result{Scene: sc, Selection: sel, Truncated: truncated, Generation: gen}
	c.mu.Lock()
	if gen == c.gen {
		c.current = sc
		c.selection = sel
		c.err = err
		res.Installed = true
	}
	c.mu.Unlock()
	return res, err
}

func (c *Chart) run(ctx context.Context, info Info, sel transform.Selection, truncated bool) (*scene.Scene, error) {
	pc := NewContext(info.Kind, sel, nil)
	pc.Truncated = truncated
	pc.Frame = c.frame
	pc.Logger = c.logger
	pc.Names = c.names

	if len(info.Sources) > 0 {
		tables, err := c.loader.Tables(ctx, info.Sources...)
		if err != nil {
			return nil, &StageError{Chart: info.Kind, Stage: StageLoad, Err: loadError(err)}
		}
		pc.tables = tables
	}
	if info.Geo != "" {
		fc, err := c.loader.Geo(ctx, info.Geo)
		if err != nil {
			return nil, &StageError{Chart: info.Kind, Stage: StageLoad, Err: loadError(err)}
		}
		pc.geo[info.Geo] = fc
	}

	sc, err := c.def.Build(pc)
	if err != nil {
		return nil, err
	}
	if sc == nil || sc.Len() == 0 {
		return nil, &StageError{Chart: info.Kind, Stage: StageRender, Err: ErrNoData}
	}
	if sc.Title == "" {
		sc.Title = info.Title
	}
	return sc, nil
}

// Scene returns the installed scene, or nil before the first update.
func (c *Chart) Scene() *scene.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Selection returns the selection of the installed scene.
func (c *Chart) Selection() transform.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Err returns the error of the installed scene.
func (c *Chart) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Generation returns the number of updates started.
func (c *Chart) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// String implements fmt.Stringer.
func (c *Chart) String() string {
	return fmt.Sprintf("chart(%s, gen %d)", c.Kind(), c.Generation())
}
