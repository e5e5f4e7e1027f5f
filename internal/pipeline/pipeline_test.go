package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

const lifeCSV = `ParentLocation,Location,Period,Dim1,FactValueNumeric
Europe,France,2021,Both sexes,82.3
Africa,Kenya,2021,Both sexes,62.1
Europe,Spain,2019,Both sexes,83.2
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustTable(t *testing.T, name, csv string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ParseCSV(name, []byte(csv))
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", name, err)
	}
	return tbl
}

// dotChart draws one circle per observation in the selected year.
func dotChart() Stages[[]record.Observation] {
	return Stages[[]record.Observation]{
		Info: Info{Kind: "dots", Title: "Dots", Sources: []string{dataset.NameLife}},
		Transform: func(pc *Context) ([]record.Observation, error) {
			obs, err := pc.Observations(dataset.NameLife)
			if err != nil {
				return nil, err
			}
			rows := transform.ObservationFilter{Year: pc.Selection.Year, Selection: pc.Selection}.Filter(obs)
			if len(rows) == 0 {
				return nil, fmt.Errorf("year %d: %w", pc.Selection.Year, ErrNoData)
			}
			return rows, nil
		},
		Render: func(pc *Context, rows []record.Observation) (*scene.Scene, error) {
			sc := scene.New(pc.Frame.Width, pc.Frame.Height)
			for i, o := range rows {
				sc.Add(scene.Shape{Key: o.Location, Kind: scene.KindCircle, X: float64(i * 20), Y: o.Value, R: 5, Tooltip: o.Location})
			}
			return sc, nil
		},
	}
}

func newTestChart(t *testing.T, def Definition, tables map[string]*dataset.Table) *Chart {
	t.Helper()
	return NewChart(def, StaticLoader{TableSet: tables}, WithLogger(quietLogger()))
}

func TestUpdate_Success(t *testing.T) {
	c := newTestChart(t, dotChart(), map[string]*dataset.Table{dataset.NameLife: mustTable(t, "life", lifeCSV)})

	res, err := c.Update(context.Background(), transform.Selection{Year: 2021})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Installed || res.Generation != 1 {
		t.Errorf("Result = %+v, want installed generation 1", res)
	}
	if got := res.Scene.Len(); got != 2 {
		t.Errorf("shapes = %d, want 2", got)
	}
	if res.Scene.Title != "Dots" {
		t.Errorf("Title = %q, want chart title", res.Scene.Title)
	}
	if res.Selection.Sex != record.SexBoth {
		t.Errorf("Sex = %q, want default both sexes", res.Selection.Sex)
	}
	if c.Scene() != res.Scene {
		t.Error("Scene() is not the installed scene")
	}
}

func TestUpdate_NoDataYear(t *testing.T) {
	c := newTestChart(t, dotChart(), map[string]*dataset.Table{dataset.NameLife: mustTable(t, "life", lifeCSV)})

	res, err := c.Update(context.Background(), transform.Selection{Year: 1990})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Update() error = %v, want ErrNoData", err)
	}
	if FailedStage(err) != StageTransform {
		t.Errorf("stage = %q, want transform", FailedStage(err))
	}
	if res.Scene.Len() != 0 {
		t.Errorf("shapes = %d, want 0", res.Scene.Len())
	}
	if res.Scene.Message != "no data for selection" {
		t.Errorf("Message = %q, want no data message", res.Scene.Message)
	}
	if c.Err() == nil {
		t.Error("Err() = nil after failed update")
	}
}

func TestUpdate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		def       Definition
		tables    map[string]*dataset.Table
		wantErr   error
		wantStage Stage
	}{
		{
			name:      "missing dataset",
			def:       dotChart(),
			tables:    map[string]*dataset.Table{},
			wantErr:   ErrLoad,
			wantStage: StageLoad,
		},
		{
			name: "missing value column",
			def:  dotChart(),
			tables: map[string]*dataset.Table{
				dataset.NameLife: mustTable(t, "life", "Location,Period\nFrance,2021\n"),
			},
			wantErr:   ErrSchema,
			wantStage: StageDecode,
		},
		{
			name: "layout rejects graph",
			def: Stages[int]{
				Info:      Info{Kind: "flow"},
				Transform: func(*Context) (int, error) { return 1, nil },
				Render: func(*Context, int) (*scene.Scene, error) {
					return nil, fmt.Errorf("cycle: %w", ErrLayout)
				},
			},
			wantErr:   ErrLayout,
			wantStage: StageLayout,
		},
		{
			name: "render draws nothing",
			def: Stages[int]{
				Info:      Info{Kind: "blank"},
				Transform: func(*Context) (int, error) { return 1, nil },
				Render:    func(pc *Context, _ int) (*scene.Scene, error) { return scene.New(10, 10), nil },
			},
			wantErr:   ErrNoData,
			wantStage: StageRender,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChart(t, tt.def, tt.tables)
			res, err := c.Update(context.Background(), transform.Selection{Year: 2021})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update() error = %v, want %v", err, tt.wantErr)
			}
			if got := FailedStage(err); got != tt.wantStage {
				t.Errorf("stage = %q, want %q", got, tt.wantStage)
			}
			if res.Scene.Len() != 0 || res.Scene.Message == "" {
				t.Errorf("failure scene has %d shapes and message %q", res.Scene.Len(), res.Scene.Message)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	err := &StageError{Chart: "dots", Stage: StageLoad, Err: fmt.Errorf("%w: %w", ErrLoad, dataset.ErrUnreachable)}
	msg := Message(err)
	if !strings.HasPrefix(msg, "error loading data: ") {
		t.Errorf("Message() = %q, want error loading prefix", msg)
	}
	if strings.Contains(msg, "dots") {
		t.Errorf("Message() = %q, should not repeat the chart name", msg)
	}
	if Message(nil) != "" {
		t.Error("Message(nil) should be empty")
	}
}

func TestUpdate_TruncatesCountries(t *testing.T) {
	var seen int
	def := Stages[int]{
		Info: Info{Kind: "count"},
		Transform: func(pc *Context) (int, error) {
			seen = len(pc.Selection.Countries)
			return seen, nil
		},
		Render: func(pc *Context, n int) (*scene.Scene, error) {
			sc := scene.New(10, 10)
			sc.Add(scene.Shape{Key: "n", Kind: scene.KindRect, W: float64(n), H: 1})
			return sc, nil
		},
	}
	c := newTestChart(t, def, nil)

	var countries []string
	for i := 0; i < 11; i++ {
		countries = append(countries, fmt.Sprintf("Country %d", i))
	}
	res, err := c.Update(context.Background(), transform.Selection{Countries: countries})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if seen != transform.MaxCountries {
		t.Errorf("transform saw %d countries, want %d", seen, transform.MaxCountries)
	}
}

func TestUpdate_StaleGenerationIgnored(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	def := Stages[int]{
		Info: Info{Kind: "slow"},
		Transform: func(pc *Context) (int, error) {
			if pc.Selection.Year == 2000 {
				once.Do(func() { close(started) })
				<-release
			}
			return pc.Selection.Year, nil
		},
		Render: func(pc *Context, year int) (*scene.Scene, error) {
			sc := scene.New(10, 10)
			sc.Add(scene.Shape{Key: fmt.Sprint(year), Kind: scene.KindRect, W: 1, H: 1})
			return sc, nil
		},
	}
	c := newTestChart(t, def, nil)

	slow := make(chan Result, 1)
	go func() {
		res, _ := c.Update(context.Background(), transform.Selection{Year: 2000})
		slow <- res
	}()
	<-started

	fast, err := c.Update(context.Background(), transform.Selection{Year: 2021})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	close(release)
	stale := <-slow

	if stale.Installed {
		t.Error("superseded update was installed")
	}
	if !fast.Installed {
		t.Error("newest update was not installed")
	}
	if _, ok := c.Scene().Get("2021"); !ok {
		t.Errorf("installed scene keys = %v, want newest", c.Scene().Keys())
	}
	if c.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", c.Generation())
	}
}

type countingLoader struct {
	StaticLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) Tables(ctx context.Context, names ...string) (map[string]*dataset.Table, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.StaticLoader.Tables(ctx, names...)
}

func TestCache(t *testing.T) {
	inner := &countingLoader{StaticLoader: StaticLoader{TableSet: map[string]*dataset.Table{
		"a": mustTable(t, "a", "x\n1\n"),
		"b": mustTable(t, "b", "y\n2\n"),
	}}}
	c := NewCache(inner)
	ctx := context.Background()

	if _, err := c.Tables(ctx, "a"); err != nil {
		t.Fatalf("Tables(a) error = %v", err)
	}
	got, err := c.Tables(ctx, "a", "b")
	if err != nil {
		t.Fatalf("Tables(a, b) error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Tables() = %d tables, want 2", len(got))
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (b loaded once, a cached)", inner.calls)
	}
	if _, err := c.Tables(ctx, "a", "b"); err != nil || inner.calls != 2 {
		t.Errorf("fully cached call hit the loader (calls = %d, err = %v)", inner.calls, err)
	}

	if _, err := c.Tables(ctx, "missing"); !errors.Is(err, ErrLoad) {
		t.Errorf("Tables(missing) error = %v, want ErrLoad", err)
	}

	c.Invalidate()
	if _, err := c.Tables(ctx, "a"); err != nil || inner.calls != 4 {
		t.Errorf("after Invalidate calls = %d, want 4", inner.calls)
	}
}
