package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/sample"
)

func TestDeriveTables(t *testing.T) {
	tables, err := sample.Tables()
	if err != nil {
		t.Fatalf("sample.Tables() error = %v", err)
	}
	derived, err := deriveTables(tables, reconcile.New(nil), 3, 2)
	if err != nil {
		t.Fatalf("deriveTables() error = %v", err)
	}

	nCountries, nYears := len(sample.Countries), len(sample.Years)
	tests := []struct {
		file     string
		wantRows int
	}{
		{SexRatioFile, nCountries * nYears},
		{LowestLEFile, 3 * nYears},
		// Four WHO regions plus the global series.
		{RegionalLEFile, 5 * nYears},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			rows, ok := derived[tt.file]
			if !ok {
				t.Fatalf("missing %s", tt.file)
			}
			if got := len(rows) - 1; got != tt.wantRows {
				t.Errorf("%s has %d rows, want %d", tt.file, got, tt.wantRows)
			}
		})
	}

	for _, name := range []string{DecadeEmissionsFile, ContinentSummaryFile} {
		if len(derived[name]) < 2 {
			t.Errorf("%s has no rows", name)
		}
	}

	// Sex ratios of HALE at 60 are all computable in the sample.
	for _, row := range derived[SexRatioFile][1:] {
		if row[5] == "" {
			t.Errorf("sex ratio for %s %s is empty", row[0], row[2])
		}
	}

	// The lowest table ranks ascending within a year.
	lows := derived[LowestLEFile][1:]
	if lows[0][1] != "1" || lows[0][2] != "Chad" {
		t.Errorf("lowest first row = %v, want rank 1 Chad", lows[0])
	}

	// Continents keep at most two countries plus Other.
	segments := make(map[string]int)
	for _, row := range derived[ContinentSummaryFile][1:] {
		segments[row[0]+"/"+row[1]]++
	}
	for k, n := range segments {
		if n > 3 {
			t.Errorf("%s has %d segments, want at most 3", k, n)
		}
	}
}

func TestWriteDerived(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "derived")
	tables := map[string][][]string{
		"a.csv": {{"x", "y"}, {"1", "2"}},
		"b.csv": {{"name"}, {"Côte d'Ivoire, Republic of"}},
	}
	if err := writeDerived(dir, tables); err != nil {
		t.Fatalf("writeDerived() error = %v", err)
	}
	for name, want := range tables {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		got, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if len(got) != len(want) || got[len(got)-1][0] != want[len(want)-1][0] {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}
