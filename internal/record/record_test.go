package record

import (
	"testing"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"100", 100, true},
		{" 82.5 ", 82.5, true},
		{"1,234.5", 1234.5, true},
		{"-3", -3, true},
		{"", 0, false},
		{"NA", 0, false},
		{"n/a", 0, false},
		{"-", 0, false},
		{"NaN", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"2021", 2021, true},
		{"2021.0", 2021, true},
		{"2021.5", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseYear(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseYear(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDecodeEmissions_FilterYear(t *testing.T) {
	tbl, err := dataset.ParseCSV("co2", []byte("Entity,Year,Value\nA,1996,100\nB,1997,50\n"))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	recs, rep, err := DecodeEmissions(tbl, "Value")
	if err != nil {
		t.Fatalf("DecodeEmissions() error = %v", err)
	}
	if rep.Kept != 2 || rep.Skipped != 0 {
		t.Errorf("Report = %+v, want 2 kept", rep)
	}

	var got []Emission
	for _, r := range recs {
		if r.Year == 1996 {
			got = append(got, r)
		}
	}
	if len(got) != 1 || got[0].Entity != "A" || got[0].Value != 100 {
		t.Errorf("filtered = %+v, want [A 1996 100]", got)
	}
}

func TestDecodeEmissions_NonNumericExcluded(t *testing.T) {
	tbl, err := dataset.ParseCSV("co2", []byte("Entity,Code,Year,Value\nA,AAA,1996,abc\nB,BBB,1996,\nC,CCC,1996,7\n"))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	recs, rep, err := DecodeEmissions(tbl, "Value")
	if err != nil {
		t.Fatalf("DecodeEmissions() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Entity != "C" {
		t.Errorf("records = %+v, want only C", recs)
	}
	if rep.Skipped != 2 || rep.Reasons["invalid value"] != 2 {
		t.Errorf("Report = %+v, want 2 skipped for invalid value", rep)
	}
}

func TestDecodeEmissions_MissingColumn(t *testing.T) {
	tbl := dataset.NewTable("co2", []string{"Entity", "Year"}, [][]string{{"A", "1996"}})
	_, _, err := DecodeEmissions(tbl, "")
	if !dataset.IsSchemaError(err) {
		t.Errorf("DecodeEmissions() error = %v, want schema error", err)
	}
}

func TestDecodeObservations(t *testing.T) {
	csv := "Indicator,ParentLocation,Location,Period,Dim1,FactValueNumeric,FactValueNumericLow,FactValueNumericHigh\n" +
		"Life expectancy at birth (years),Europe,France,2021,Female,85.1,84.0,86.2\n" +
		"Life expectancy at birth (years),Europe,France,2021,Male,79.2,,\n" +
		"Life expectancy at birth (years),Europe,France,2021,Unknown,80,,\n" +
		"Life expectancy at birth (years),Europe,France,NA,Male,79.2,,\n"
	tbl, err := dataset.ParseCSV("le", []byte(csv))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	recs, rep, err := DecodeObservations(tbl)
	if err != nil {
		t.Fatalf("DecodeObservations() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2 (report %+v)", len(recs), rep)
	}
	if recs[0].Sex != SexFemale || !recs[0].HasRange() || *recs[0].Low != 84.0 {
		t.Errorf("recs[0] = %+v, want female with range", recs[0])
	}
	if recs[1].HasRange() {
		t.Errorf("recs[1].HasRange() = true, want false")
	}
	if rep.Reasons["invalid sex"] != 1 || rep.Reasons["invalid period"] != 1 {
		t.Errorf("Reasons = %v", rep.Reasons)
	}
}

func TestDecodePopulation_Wide(t *testing.T) {
	csv := "Country Name,Country Code,Indicator Name,2000,2001\n" +
		"France,FRA,Population,60912500,61357430\n" +
		"Kenya,KEN,Population,,32000000\n"
	tbl, err := dataset.ParseCSV("pop", []byte(csv))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	recs, rep, err := DecodePopulation(tbl)
	if err != nil {
		t.Fatalf("DecodePopulation() error = %v", err)
	}
	if len(recs) != 3 || rep.Skipped != 1 {
		t.Errorf("DecodePopulation() = %d records, %d skipped, want 3, 1", len(recs), rep.Skipped)
	}
	if recs[0].Entity != "France" || recs[0].Year != 2000 || recs[0].Population != 60912500 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
}

func TestDecodeMemberships(t *testing.T) {
	tbl := dataset.NewTable("continents", []string{"Country", "Continent"},
		[][]string{{"France", "Europe"}, {"", "Asia"}, {"Kenya", "Africa"}})
	recs, rep, err := DecodeMemberships(tbl)
	if err != nil {
		t.Fatalf("DecodeMemberships() error = %v", err)
	}
	if len(recs) != 2 || rep.Skipped != 1 {
		t.Errorf("DecodeMemberships() = %+v, report %+v", recs, rep)
	}
}

func TestParseSex(t *testing.T) {
	for in, want := range map[string]Sex{"both": SexBoth, "Female": SexFemale, "m": SexMale, "": SexBoth} {
		if got, ok := ParseSex(in); !ok || got != want {
			t.Errorf("ParseSex(%q) = %q, %v, want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseSex("other"); ok {
		t.Errorf("ParseSex(other) ok = true, want false")
	}
}
