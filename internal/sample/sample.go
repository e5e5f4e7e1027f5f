// Package sample generates a small, self-consistent set of datasets: WHO
// life expectancy, OWID CO2, continent membership, population and world
// boundaries. `lifeviz init --sample` writes them so every chart renders
// offline.
package sample

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
)

// Country is one sample country. Names differ between sources the same way
// the real datasets do.
type Country struct {
	WHOName   string // WHO GHO spelling
	OWIDName  string // OWID and continent table spelling
	Code      string
	Region    string // WHO region
	Continent string
	LE        float64 // life expectancy at birth in FirstYear, both sexes
	Pop       float64
	Lon, Lat  float64
	Fossil    float64 // tonnes in FirstYear
	LandUse   float64
}

// Years covered by every sample dataset.
var Years = []int{2019, 2021}

// Countries in the sample.
var Countries = []Country{
	{"France", "France", "FRA", "Europe", "Europe", 82.5, 67.5e6, 2, 46, 306e6, 12e6},
	{"Spain", "Spain", "ESP", "Europe", "Europe", 83.0, 47.3e6, -4, 40, 230e6, 5e6},
	{"Germany", "Germany", "DEU", "Europe", "Europe", 81.0, 83.2e6, 10, 51, 675e6, 10e6},
	{"Russian Federation", "Russia", "RUS", "Europe", "Europe", 71.0, 144e6, 60, 60, 1.75e9, 100e6},
	{"Kenya", "Kenya", "KEN", "Africa", "Africa", 62.0, 53e6, 38, 0, 19e6, 40e6},
	{"Nigeria", "Nigeria", "NGA", "Africa", "Africa", 55.0, 211e6, 8, 9, 130e6, 180e6},
	{"Chad", "Chad", "TCD", "Africa", "Africa", 53.0, 17e6, 19, 15, 2e6, 20e6},
	{"Japan", "Japan", "JPN", "Western Pacific", "Asia", 84.5, 125.7e6, 138, 36, 1.07e9, -2e6},
	{"Brazil", "Brazil", "BRA", "Americas", "South America", 75.5, 214e6, -52, -10, 490e6, 1.1e9},
	{"United States of America", "United States", "USA", "Americas", "North America", 78.0, 332e6, -100, 40, 5.0e9, 90e6},
}

// File names written by Write.
const (
	LifeFile       = "life.csv"
	CO2File        = "co2.csv"
	ContinentsFile = "continents.csv"
	PopulationFile = "population.csv"
	WorldFile      = "world.geojson"
)

// Sources returns the manifest entries for the sample files.
func Sources() []dataset.Source {
	return []dataset.Source{
		{Name: dataset.NameLife, Location: LifeFile},
		{Name: dataset.NameCO2, Location: CO2File},
		{Name: dataset.NameContinents, Location: ContinentsFile},
		{Name: dataset.NamePopulation, Location: PopulationFile},
		{Name: dataset.NameWorld, Location: WorldFile},
	}
}

func num(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func writeCSV(rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.WriteAll(rows) // bytes.Buffer writes do not fail
	return buf.Bytes()
}

var sexOffset = map[record.Sex]float64{
	record.SexBoth:   0,
	record.SexFemale: 2.5,
	record.SexMale:   -2.5,
}

// LifeValue returns the sample value of indicator for c.
func LifeValue(c Country, indicator string, year int, sex record.Sex) float64 {
	le := c.LE + float64(year-Years[0])*0.4 + sexOffset[sex]
	switch indicator {
	case record.IndicatorLE60:
		return le * 0.28
	case record.IndicatorHALE:
		return le - 9.5
	case record.IndicatorHALE60:
		return le*0.28 - 4
	}
	return le
}

// Life returns the WHO GHO export.
func Life() []byte {
	rows := [][]string{{
		record.ColIndicator, record.ColParentLocation, record.ColLocationCode, record.ColLocation,
		record.ColPeriod, record.ColDim1, record.ColValue, record.ColValueLow, record.ColValueHigh,
	}}
	indicators := []string{record.IndicatorLE, record.IndicatorLE60, record.IndicatorHALE, record.IndicatorHALE60}
	sexes := []record.Sex{record.SexBoth, record.SexFemale, record.SexMale}
	for _, ind := range indicators {
		for _, c := range Countries {
			for _, y := range Years {
				for _, s := range sexes {
					v := LifeValue(c, ind, y, s)
					lo, hi := "", ""
					if ind == record.IndicatorLE {
						lo, hi = num(v-1.2, 1), num(v+1.2, 1)
					}
					rows = append(rows, []string{ind, c.Region, c.Code, c.WHOName, strconv.Itoa(y), string(s), num(v, 1), lo, hi})
				}
			}
		}
	}
	return writeCSV(rows)
}

// CO2 returns the OWID table, including a World aggregate row per year.
func CO2() []byte {
	rows := [][]string{{
		record.ColEntity, record.ColCode, record.ColYear,
		record.MeasureAnnual, record.MeasurePerCapita, record.MeasureFossil, record.MeasureLandUse,
	}}
	for _, y := range Years {
		grow := 1 + float64(y-Years[0])*0.02
		var wf, wl, wp float64
		for _, c := range Countries {
			f, l := c.Fossil*grow, c.LandUse*grow
			wf, wl, wp = wf+f, wl+l, wp+c.Pop
			rows = append(rows, []string{c.OWIDName, c.Code, strconv.Itoa(y), num(f+l, 0), num((f+l)/c.Pop, 3), num(f, 0), num(l, 0)})
		}
		rows = append(rows, []string{"World", "OWID_WRL", strconv.Itoa(y), num(wf+wl, 0), num((wf+wl)/wp, 3), num(wf, 0), num(wl, 0)})
	}
	return writeCSV(rows)
}

// Continents returns the country membership table.
func Continents() []byte {
	rows := [][]string{{record.ColCountry, record.ColContinent}}
	for _, c := range Countries {
		rows = append(rows, []string{c.OWIDName, c.Continent})
	}
	return writeCSV(rows)
}

// Population returns the long-layout population table.
func Population() []byte {
	rows := [][]string{{record.ColEntity, record.ColCode, record.ColYear, record.MeasurePopulation}}
	for _, c := range Countries {
		for _, y := range Years {
			rows = append(rows, []string{c.WHOName, c.Code, strconv.Itoa(y), num(c.Pop*(1+float64(y-Years[0])*0.01), 0)})
		}
	}
	return writeCSV(rows)
}

// World returns a FeatureCollection with one square per country.
func World() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range Countries {
		const d = 3.0
		ring := [][]float64{
			{c.Lon - d, c.Lat - d}, {c.Lon + d, c.Lat - d},
			{c.Lon + d, c.Lat + d}, {c.Lon - d, c.Lat + d},
			{c.Lon - d, c.Lat - d},
		}
		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.ID = c.Code
		f.SetProperty("name", c.OWIDName)
		f.SetProperty("iso_a3", c.Code)
		fc.AddFeature(f)
	}
	return fc
}

// Files returns every sample file keyed by file name.
func Files() (map[string][]byte, error) {
	world, err := World().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding world geometry: %w", err)
	}
	return map[string][]byte{
		LifeFile:       Life(),
		CO2File:        CO2(),
		ContinentsFile: Continents(),
		PopulationFile: Population(),
		WorldFile:      world,
	}, nil
}

// Write writes the sample files into dir.
func Write(dir string) error {
	files, err := Files()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// Tables parses the tabular sample files, keyed by dataset name.
func Tables() (map[string]*dataset.Table, error) {
	tables := make(map[string]*dataset.Table)
	for name, data := range map[string][]byte{
		dataset.NameLife:       Life(),
		dataset.NameCO2:        CO2(),
		dataset.NameContinents: Continents(),
		dataset.NamePopulation: Population(),
	} {
		t, err := dataset.ParseCSV(name, data)
		if err != nil {
			return nil, err
		}
		t.Fingerprint = dataset.Fingerprint(data)
		tables[name] = t
	}
	return tables, nil
}

// Loader serves the sample datasets from memory.
func Loader() (pipeline.StaticLoader, error) {
	tables, err := Tables()
	if err != nil {
		return pipeline.StaticLoader{}, err
	}
	return pipeline.StaticLoader{
		TableSet: tables,
		GeoSet:   map[string]*geojson.FeatureCollection{dataset.NameWorld: World()},
	}, nil
}

// Observations decodes the sample life expectancy table.
func Observations() ([]record.Observation, error) {
	t, err := dataset.ParseCSV(dataset.NameLife, Life())
	if err != nil {
		return nil, err
	}
	obs, _, err := record.DecodeObservations(t)
	return obs, err
}
