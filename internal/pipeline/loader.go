package pipeline

import (
	"context"
	"fmt"
	"sync"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

// Loader supplies the raw tables and geometry charts read.
type Loader interface {
	// Tables returns every named table or fails as a whole.
	Tables(ctx context.Context, names ...string) (map[string]*dataset.Table, error)
	// Geo returns the named feature collection.
	Geo(ctx context.Context, name string) (*geojson.FeatureCollection, error)
}

// SourceLoader resolves names against a manifest and fetches them.
type SourceLoader struct {
	Fetcher *dataset.Fetcher
	Sources map[string]dataset.Source
}

func (l *SourceLoader) source(name string) (dataset.Source, error) {
	src, ok := l.Sources[name]
	if !ok {
		return dataset.Source{}, fmt.Errorf("%w: dataset %q is not configured", ErrLoad, name)
	}
	if src.Name == "" {
		src.Name = name
	}
	return src, nil
}

// Tables fetches the named sources concurrently.
func (l *SourceLoader) Tables(ctx context.Context, names ...string) (map[string]*dataset.Table, error) {
	srcs := make([]dataset.Source, 0, len(names))
	for _, n := range names {
		src, err := l.source(n)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return l.Fetcher.FetchAll(ctx, srcs...)
}

// Geo fetches one GeoJSON source.
func (l *SourceLoader) Geo(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	src, err := l.source(name)
	if err != nil {
		return nil, err
	}
	return l.Fetcher.LoadGeo(ctx, src)
}

// StaticLoader serves preloaded tables and geometry.
type StaticLoader struct {
	TableSet map[string]*dataset.Table
	GeoSet   map[string]*geojson.FeatureCollection
}

// Tables returns the named tables.
func (l StaticLoader) Tables(_ context.Context, names ...string) (map[string]*dataset.Table, error) {
	out := make(map[string]*dataset.Table, len(names))
	for _, n := range names {
		t, ok := l.TableSet[n]
		if !ok {
			return nil, fmt.Errorf("%w: dataset %q: %w", ErrLoad, n, dataset.ErrUnreachable)
		}
		out[n] = t
	}
	return out, nil
}

// Geo returns the named collection.
func (l StaticLoader) Geo(_ context.Context, name string) (*geojson.FeatureCollection, error) {
	fc, ok := l.GeoSet[name]
	if !ok {
		return nil, fmt.Errorf("%w: dataset %q: %w", ErrLoad, name, dataset.ErrUnreachable)
	}
	return fc, nil
}

// Cache memoizes a Loader's successful results. Failures are not cached.
// It is safe for concurrent use.
type Cache struct {
	inner Loader

	mu     sync.Mutex
	tables map[string]*dataset.Table
	geo    map[string]*geojson.FeatureCollection
}

// NewCache wraps inner.
func NewCache(inner Loader) *Cache {
	return &Cache{
		inner:  inner,
		tables: make(map[string]*dataset.Table),
		geo:    make(map[string]*geojson.FeatureCollection),
	}
}

// Tables returns cached tables and loads the missing ones in one join.
func (c *Cache) Tables(ctx context.Context, names ...string) (map[string]*dataset.Table, error) {
	out := make(map[string]*dataset.Table, len(names))
	var missing []string
	c.mu.Lock()
	for _, n := range names {
		if t, ok := c.tables[n]; ok {
			out[n] = t
		} else {
			missing = append(missing, n)
		}
	}
	c.mu.Unlock()
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.inner.Tables(ctx, missing...)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for n, t := range loaded {
		c.tables[n] = t
		out[n] = t
	}
	c.mu.Unlock()
	return out, nil
}

// Geo returns the cached collection or loads it.
func (c *Cache) Geo(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	fc, ok := c.geo[name]
	c.mu.Unlock()
	if ok {
		return fc, nil
	}
	fc, err := c.inner.Geo(ctx, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.geo[name] = fc
	c.mu.Unlock()
	return fc, nil
}

// Invalidate drops everything cached.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*dataset.Table)
	c.geo = make(map[string]*geojson.FeatureCollection)
}
