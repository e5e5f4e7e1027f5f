package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// Derived table file names.
const (
	SexRatioFile         = "sex_ratio.csv"
	DecadeEmissionsFile  = "decade_emissions.csv"
	ContinentSummaryFile = "continent_summary.csv"
	LowestLEFile         = "lowest_le.csv"
	RegionalLEFile       = "regional_le.csv"
)

var (
	deriveLowest int
	deriveTopN   int
)

func init() {
	deriveCmd.Flags().IntVar(&deriveLowest, "lowest", 5, "Countries per year in the lowest life expectancy table")
	deriveCmd.Flags().IntVar(&deriveTopN, "top", 5, "Countries per continent before folding into Other")
	rootCmd.AddCommand(deriveCmd)
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Write derived summary tables",
	Long: `Compute summary tables from the configured datasets and write them as CSV
to .lifeviz/derived/:

  sex_ratio.csv          female/male HALE at 60 per country and year
  decade_emissions.csv   mean annual CO2 per entity and decade
  continent_summary.csv  per-capita CO2 per continent and year, top countries + Other
  lowest_le.csv          lowest male life expectancy at birth per year
  regional_le.csv        mean life expectancy at birth per WHO region and year`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

// DeriveResult is the response for the derive command.
type DeriveResult struct {
	Status string         `json:"status"`
	Dir    string         `json:"dir"`
	Files  map[string]int `json:"files"`
}

func runDerive(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)

	tables, err := newLoader(root, cfg).Tables(cmd.Context(), dataset.NameLife, dataset.NameCO2, dataset.NameContinents)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading datasets: %v", err)
	}
	derived, err := deriveTables(tables, newNames(cfg), deriveLowest, deriveTopN)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	dir := config.DerivedPath(root)
	res := DeriveResult{Status: "derived", Dir: dir, Files: make(map[string]int, len(derived))}
	if err := writeDerived(dir, derived); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	for name, rows := range derived {
		res.Files[name] = len(rows) - 1
	}

	if humanOutput {
		names := make([]string, 0, len(res.Files))
		for name := range res.Files {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("Wrote %d tables to %s\n", len(names), dir)
		for _, name := range names {
			fmt.Printf("  %-22s %d rows\n", name, res.Files[name])
		}
	} else {
		outputJSON(res)
	}
	return nil
}

// deriveTables computes every derived table as header plus rows.
func deriveTables(tables map[string]*dataset.Table, names *reconcile.Table, lowest, top int) (map[string][][]string, error) {
	obs, _, err := record.DecodeObservations(tables[dataset.NameLife])
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", dataset.NameLife, err)
	}
	annual, _, err := record.DecodeEmissions(tables[dataset.NameCO2], record.MeasureAnnual)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", dataset.NameCO2, err)
	}
	perCapita, _, err := record.DecodeEmissions(tables[dataset.NameCO2], record.MeasurePerCapita)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", dataset.NameCO2, err)
	}
	ms, _, err := record.DecodeMemberships(tables[dataset.NameContinents])
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", dataset.NameContinents, err)
	}

	out := make(map[string][][]string, 5)

	hale60 := transform.ObservationFilter{Indicator: record.IndicatorHALE60}.Filter(obs)
	ratios := [][]string{{"location", "code", "year", "female", "male", "ratio"}}
	for _, r := range transform.SexRatios(hale60) {
		ratios = append(ratios, []string{r.Location, r.Code, strconv.Itoa(r.Year), cell(r.Female), cell(r.Male), cell(r.Ratio)})
	}
	out[SexRatioFile] = ratios

	decades := [][]string{{"entity", "decade", "mean"}}
	for _, d := range transform.DecadeAverages(annual) {
		decades = append(decades, []string{d.Entity, strconv.Itoa(d.Decade), cell(d.Mean)})
	}
	out[DecadeEmissionsFile] = decades

	key := names.Key
	cont := transform.NewContinents(ms, key)
	summary := [][]string{{"continent", "year", "segment", "value", "total"}}
	for _, y := range transform.Keys(perCapita, func(e record.Emission) int { return e.Year }) {
		for _, row := range transform.ContinentStacks(perCapita, cont, key, y, top) {
			for _, s := range row.Segments {
				summary = append(summary, []string{row.Continent, strconv.Itoa(y), s.Name, num(s.Value), num(row.Total)})
			}
		}
	}
	out[ContinentSummaryFile] = summary

	le := transform.ObservationFilter{Indicator: record.IndicatorLE}.Filter(obs)
	maleLE := transform.ObservationFilter{Sex: record.SexMale}.Filter(le)
	lows := transform.LowestN(maleLE, lowest)
	lowRows := [][]string{{"year", "rank", "location", "region", "value"}}
	for _, y := range transform.Years(maleLE) {
		for i, o := range lows[y] {
			lowRows = append(lowRows, []string{strconv.Itoa(y), strconv.Itoa(i + 1), o.Location, o.ParentLocation, num(o.Value)})
		}
	}
	out[LowestLEFile] = lowRows

	bothLE := transform.ObservationFilter{Sex: record.SexBoth}.Filter(le)
	avgs := transform.RegionalAverages(bothLE)
	regions := make([]string, 0, len(avgs))
	for r := range avgs {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	regional := [][]string{{"region", "year", "mean"}}
	for _, r := range regions {
		for _, yv := range avgs[r] {
			regional = append(regional, []string{r, strconv.Itoa(yv.Year), cell(yv.Stat)})
		}
	}
	for _, yv := range transform.GlobalAverage(bothLE) {
		regional = append(regional, []string{"Global", strconv.Itoa(yv.Year), cell(yv.Stat)})
	}
	out[RegionalLEFile] = regional

	return out, nil
}

// writeDerived writes each table to dir/<name>.
func writeDerived(dir string, tables map[string][][]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for name, rows := range tables {
		if err := writeCSVFile(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// cell renders a reduced value; an empty reduction is an empty cell.
func cell(s transform.Stat) string {
	if !s.Valid {
		return ""
	}
	return num(s.Value)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
