package record

import (
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

// OWID CO2 column names.
const (
	ColEntity          = "Entity"
	ColCode            = "Code"
	ColYear            = "Year"
	MeasureAnnual      = "Annual CO₂ emissions"
	MeasurePerCapita   = "Annual CO₂ emissions (per capita)"
	MeasureFossil      = "Annual CO₂ emissions from fossil fuels"
	MeasureLandUse     = "Annual CO₂ emissions from land-use change"
	MeasurePopulation  = "Population"
	DefaultEmissionCol = MeasureAnnual
)

// Emission is one OWID entity-year with a single measure.
type Emission struct {
	Entity string  `json:"entity"`
	Code   string  `json:"code,omitempty"`
	Year   int     `json:"year"`
	Value  float64 `json:"value"`
}

// DecodeEmissions decodes an OWID table, reading measure as the value column.
// An empty measure selects the annual total.
func DecodeEmissions(t *dataset.Table, measure string) ([]Emission, Report, error) {
	if measure == "" {
		measure = DefaultEmissionCol
	}
	rep := Report{Table: t.Name}
	if err := t.Require(ColEntity, ColYear, measure); err != nil {
		return nil, rep, err
	}

	out := make([]Emission, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		entity := strings.TrimSpace(t.Get(i, ColEntity))
		if entity == "" {
			rep.skip("missing entity")
			continue
		}
		year, ok := ParseYear(t.Get(i, ColYear))
		if !ok {
			rep.skip("invalid year")
			continue
		}
		v, ok := ParseNumber(t.Get(i, measure))
		if !ok {
			rep.skip("invalid value")
			continue
		}
		out = append(out, Emission{
			Entity: entity,
			Code:   strings.TrimSpace(t.Get(i, ColCode)),
			Year:   year,
			Value:  v,
		})
		rep.keep()
	}
	return out, rep, nil
}

// IsAggregate reports whether an OWID entity is a region or group rather than
// a country. OWID gives countries an ISO alpha-3 code and aggregates either no
// code or an OWID_ prefixed one.
func (e Emission) IsAggregate() bool {
	return e.Code == "" || strings.HasPrefix(e.Code, "OWID_")
}
