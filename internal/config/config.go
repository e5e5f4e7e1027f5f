// Package config handles project and global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
)

const (
	ProjectDir       = ".lifeviz"
	ConfigFile       = "config.yml"
	ObservationsFile = "observations.jsonl"
	ManifestFile     = "manifest.json"
	CacheDir         = "cache"
	DBFile           = "observations.db"
	DerivedDir       = "derived"
)

// Environment variables that override the config file.
const (
	EnvAddr    = "LIFEVIZ_ADDR"
	EnvDataDir = "LIFEVIZ_DATA_DIR"
	EnvRPS     = "LIFEVIZ_RPS"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// DefaultWorldURL is the country boundary set the map charts use.
const DefaultWorldURL = "https://raw.githubusercontent.com/holtzy/D3-graph-gallery/master/DATA/world.geojson"

// ErrInvalid marks a config that loaded but failed validation.
var ErrInvalid = errors.New("invalid config")

// ChartConfig holds chart defaults.
type ChartConfig struct {
	Frame pipeline.Frame `yaml:"frame"`
	// DefaultYear is used when a request names no year; 0 means latest.
	DefaultYear int `yaml:"default_year,omitempty"`
}

// ServerConfig configures lifeviz serve.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// FetchConfig configures dataset downloads.
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Config is the project configuration stored in .lifeviz/config.yml.
type Config struct {
	// DataDir is where relative dataset locations resolve, relative to the
	// project root unless absolute.
	DataDir   string            `yaml:"data_dir"`
	Datasets  []dataset.Source  `yaml:"datasets"`
	Chart     ChartConfig       `yaml:"chart"`
	Server    ServerConfig      `yaml:"server"`
	Fetch     FetchConfig       `yaml:"fetch"`
	Reconcile map[string]string `yaml:"reconcile,omitempty"`
}

// Default returns the config written by lifeviz init.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Datasets: []dataset.Source{
			{Name: dataset.NameLife, Location: "life.csv"},
			{Name: dataset.NameCO2, Location: "co2.csv"},
			{Name: dataset.NameContinents, Location: "continents.csv"},
			{Name: dataset.NamePopulation, Location: "population.csv"},
			{Name: dataset.NameWorld, Location: DefaultWorldURL, Format: dataset.FormatGeoJSON},
		},
		Chart:  ChartConfig{Frame: pipeline.DefaultFrame},
		Server: ServerConfig{Addr: DefaultAddr},
		Fetch: FetchConfig{
			Timeout:           dataset.DefaultTimeout,
			RequestsPerSecond: dataset.DefaultRateLimit,
		},
	}
}

// ProjectPath returns the path to the .lifeviz directory from a root path.
func ProjectPath(root string) string {
	return filepath.Join(root, ProjectDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ProjectDir, ConfigFile)
}

// ObservationsPath returns the path to observations.jsonl from a root path.
func ObservationsPath(root string) string {
	return filepath.Join(root, ProjectDir, ObservationsFile)
}

// ManifestPath returns the path to the import manifest from a root path.
func ManifestPath(root string) string {
	return filepath.Join(root, ProjectDir, ManifestFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, ProjectDir, CacheDir)
}

// DBPath returns the path to observations.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, ProjectDir, CacheDir, DBFile)
}

// DerivedPath returns the directory lifeviz derive writes to.
func DerivedPath(root string) string {
	return filepath.Join(root, ProjectDir, DerivedDir)
}

// IsProject checks if the given path contains a lifeviz project.
func IsProject(root string) bool {
	info, err := os.Stat(ProjectPath(root))
	return err == nil && info.IsDir()
}

// FindProject walks up from the given path to find a lifeviz project.
func FindProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		if IsProject(abs) {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a lifeviz project (no %s directory found)", ProjectDir)
		}
		abs = parent
	}
}

// Load reads, defaults and validates the configuration at root, then
// applies environment overrides.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	cfg.Datasets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the project at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvRPS); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return fmt.Errorf("%w: %s=%q is not a positive number", ErrInvalid, EnvRPS, v)
		}
		c.Fetch.RequestsPerSecond = rps
	}
	return nil
}

// Validate checks dataset names and formats and chart sizes.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Datasets))
	for i, src := range c.Datasets {
		if src.Name == "" {
			return fmt.Errorf("%w: dataset %d has no name", ErrInvalid, i+1)
		}
		if seen[src.Name] {
			return fmt.Errorf("%w: duplicate dataset %q", ErrInvalid, src.Name)
		}
		seen[src.Name] = true
		if src.Location == "" {
			return fmt.Errorf("%w: dataset %q has no location", ErrInvalid, src.Name)
		}
		if _, err := src.ResolvedFormat(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	f := c.Chart.Frame
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: chart size %vx%v must be positive", ErrInvalid, f.Width, f.Height)
	}
	if f.InnerWidth() <= 0 || f.InnerHeight() <= 0 {
		return fmt.Errorf("%w: chart margins leave no plot area", ErrInvalid)
	}
	if c.Fetch.RequestsPerSecond < 0 || c.Fetch.Timeout < 0 {
		return fmt.Errorf("%w: fetch limits must not be negative", ErrInvalid)
	}
	return nil
}

// Sources returns the dataset manifest keyed by name.
func (c *Config) Sources() map[string]dataset.Source {
	out := make(map[string]dataset.Source, len(c.Datasets))
	for _, s := range c.Datasets {
		out[s.Name] = s
	}
	return out
}

// ResolveDataDir returns the data directory as an absolute path.
func (c *Config) ResolveDataDir(root string) string {
	dir := ExpandTilde(c.DataDir)
	if dir == "" {
		dir = "."
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
