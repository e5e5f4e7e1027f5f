package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the serialization of a source.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
	FormatGeoJSON Format = "geojson"
)

// Well-known source names the charts read.
const (
	// NameLife is the WHO GHO export: life expectancy and healthy life
	// expectancy, at birth and at 60, by sex.
	NameLife = "life"
	// NameCO2 is the OWID CO2 table with one column per measure.
	NameCO2 = "co2"
	// NameContinents maps countries to continents.
	NameContinents = "continents"
	// NamePopulation is the World Bank population table.
	NamePopulation = "population"
	// NameWorld is the country boundaries GeoJSON.
	NameWorld = "world"
)

// ValidFormats lists the supported format names.
var ValidFormats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatGeoJSON}

// Source names one resource to load.
type Source struct {
	Name string `yaml:"name" json:"name"`
	// Location is an http(s) URL or a path relative to the data directory.
	Location string `yaml:"location" json:"location"`
	// Format is inferred from the extension when empty.
	Format Format `yaml:"format,omitempty" json:"format,omitempty"`
	// Sheet selects the xlsx worksheet; the first sheet is used when empty.
	Sheet string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// IsRemote reports whether the source is fetched over HTTP.
func (s Source) IsRemote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// ResolvedFormat returns the declared format or the one implied by the extension.
func (s Source) ResolvedFormat() (Format, error) {
	if s.Format != "" {
		return ParseFormat(string(s.Format))
	}
	loc := s.Location
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(loc)), ".")
	if ext == "" {
		return "", fmt.Errorf("source %s: cannot infer format from %q", s.Name, s.Location)
	}
	return ParseFormat(ext)
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	case "geojson":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q (valid: %v)", name, ValidFormats)
	}
}
