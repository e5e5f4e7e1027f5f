package dataset

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of HTTP requests per second.
	DefaultRateLimit = 5.0

	// MaxPayloadSize caps a single fetched resource.
	MaxPayloadSize = 256 * 1024 * 1024
)

// Fetcher loads sources from HTTP or the local data directory.
// It is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	dataDir    string
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit sets the HTTP requests-per-second limit.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithDataDir sets the directory relative local locations resolve against.
func WithDataDir(dir string) FetcherOption {
	return func(f *Fetcher) {
		f.dataDir = dir
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		dataDir:    ".",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DataDir returns the directory local sources resolve against.
func (f *Fetcher) DataDir() string {
	return f.dataDir
}

// Bytes returns the raw payload of a source.
func (f *Fetcher) Bytes(ctx context.Context, src Source) ([]byte, error) {
	if src.IsRemote() {
		return f.get(ctx, src)
	}
	path := src.Location
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dataDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{Source: src.Name, Location: path, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, src Source) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Source: src.Name, Location: src.Location, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{
			Source:     src.Name,
			Location:   src.Location,
			StatusCode: resp.StatusCode,
			Err:        ErrUnreachable,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize))
	if err != nil {
		return nil, &FetchError{Source: src.Name, Location: src.Location, Err: fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)}
	}
	return data, nil
}

// Fetch loads and parses one tabular source. GeoJSON sources are rejected here;
// use LoadGeo for them.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (*Table, error) {
	format, err := src.ResolvedFormat()
	if err != nil {
		return nil, err
	}
	if format == FormatGeoJSON {
		return nil, fmt.Errorf("source %s: geojson is not tabular, use LoadGeo", src.Name)
	}

	start := time.Now()
	data, err := f.Bytes(ctx, src)
	if err != nil {
		return nil, err
	}

	var t *Table
	switch format {
	case FormatCSV:
		t, err = ParseCSV(src.Name, data)
	case FormatJSON:
		t, err = ParseJSON(src.Name, data)
	case FormatXLSX:
		t, err = ParseXLSX(src.Name, data, src.Sheet)
	}
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", src.Name, ErrEmpty)
	}
	t.Fingerprint = Fingerprint(data)

	f.logger.Debug("fetched dataset",
		"source", src.Name,
		"rows", t.Len(),
		"columns", len(t.Columns),
		"elapsed", time.Since(start))
	return t, nil
}

// FetchAll fetches every source concurrently and returns the tables keyed by
// source name. The join succeeds only if every fetch succeeds; the first
// failure cancels the rest.
func (f *Fetcher) FetchAll(ctx context.Context, sources ...Source) (map[string]*Table, error) {
	g, ctx := errgroup.WithContext(ctx)
	tables := make([]*Table, len(sources))
	for i, src := range sources {
		g.Go(func() error {
			t, err := f.Fetch(ctx, src)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Table, len(sources))
	for i, src := range sources {
		out[src.Name] = tables[i]
	}
	return out, nil
}

// Fingerprint returns the hex blake2b-256 digest of a payload.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
