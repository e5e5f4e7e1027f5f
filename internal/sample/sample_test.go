package sample

import (
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
)

func TestLifeDecodes(t *testing.T) {
	tbl, err := dataset.ParseCSV("life", Life())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	obs, rep, err := record.DecodeObservations(tbl)
	if err != nil {
		t.Fatalf("DecodeObservations() error = %v", err)
	}
	want := 4 * len(Countries) * len(Years) * 3
	if len(obs) != want || rep.Skipped != 0 {
		t.Errorf("decoded %d observations (%d skipped), want %d", len(obs), rep.Skipped, want)
	}
	for _, o := range obs {
		if o.Indicator == record.IndicatorLE && !o.HasRange() {
			t.Errorf("%s %d: life expectancy without range", o.Location, o.Period)
			break
		}
	}
}

func TestCO2HasAggregate(t *testing.T) {
	tbl, err := dataset.ParseCSV("co2", CO2())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	es, _, err := record.DecodeEmissions(tbl, record.MeasureLandUse)
	if err != nil {
		t.Fatalf("DecodeEmissions() error = %v", err)
	}
	var aggregates int
	for _, e := range es {
		if e.IsAggregate() {
			aggregates++
		}
	}
	if aggregates != len(Years) {
		t.Errorf("aggregate rows = %d, want one per year", aggregates)
	}
}

func TestNamesReconcileAcrossSources(t *testing.T) {
	names := reconcile.New(nil)
	for _, c := range Countries {
		if names.Key(c.WHOName) != names.Key(c.OWIDName) {
			t.Errorf("%q and %q do not reconcile", c.WHOName, c.OWIDName)
		}
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := Write(dir); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for _, src := range Sources() {
		if _, err := os.Stat(filepath.Join(dir, src.Location)); err != nil {
			t.Errorf("missing %s: %v", src.Location, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, WorldFile))
	if err != nil {
		t.Fatalf("Failed to read world: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection() error = %v", err)
	}
	if len(fc.Features) != len(Countries) {
		t.Errorf("features = %d, want %d", len(fc.Features), len(Countries))
	}
	if got := dataset.FeatureCode(fc.Features[0]); got != Countries[0].Code {
		t.Errorf("FeatureCode() = %q, want %q", got, Countries[0].Code)
	}
}
