package record

import (
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

// WHO GHO indicator names.
const (
	IndicatorLE       = "Life expectancy at birth (years)"
	IndicatorLE60     = "Life expectancy at age 60 (years)"
	IndicatorHALE     = "Healthy life expectancy (HALE) at birth (years)"
	IndicatorHALE60   = "Healthy life expectancy (HALE) at age 60 (years)"
	DefaultIndicator  = IndicatorLE
	ColLocation       = "Location"
	ColParentLocation = "ParentLocation"
	ColIndicator      = "Indicator"
	ColPeriod         = "Period"
	ColDim1           = "Dim1"
	ColValue          = "FactValueNumeric"
	ColValueLow       = "FactValueNumericLow"
	ColValueHigh      = "FactValueNumericHigh"
	ColLocationCode   = "SpatialDimValueCode"
)

// Sex is the WHO Dim1 disaggregation.
type Sex string

const (
	SexBoth   Sex = "Both sexes"
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// ParseSex accepts WHO labels and short forms (both, male, female, m, f).
func ParseSex(s string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "both sexes", "all":
		return SexBoth, true
	case "male", "m":
		return SexMale, true
	case "female", "f":
		return SexFemale, true
	}
	return "", false
}

// Observation is one WHO GHO life expectancy row.
type Observation struct {
	Indicator      string   `json:"Indicator"`
	ParentLocation string   `json:"ParentLocation"`
	Location       string   `json:"Location"`
	Code           string   `json:"SpatialDimValueCode,omitempty"`
	Period         int      `json:"Period"`
	Sex            Sex      `json:"Dim1"`
	Value          float64  `json:"FactValueNumeric"`
	Low            *float64 `json:"FactValueNumericLow"`
	High           *float64 `json:"FactValueNumericHigh"`
}

// HasRange reports whether both uncertainty bounds are present.
func (o Observation) HasRange() bool {
	return o.Low != nil && o.High != nil
}

// DecodeObservations decodes a WHO GHO table. Location, Period and
// FactValueNumeric are required columns. A missing Indicator column defaults
// to life expectancy at birth and a missing Dim1 column to both sexes.
func DecodeObservations(t *dataset.Table) ([]Observation, Report, error) {
	rep := Report{Table: t.Name}
	if err := t.Require(ColLocation, ColPeriod, ColValue); err != nil {
		return nil, rep, err
	}

	out := make([]Observation, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		loc := strings.TrimSpace(t.Get(i, ColLocation))
		if loc == "" {
			rep.skip("missing location")
			continue
		}
		year, ok := ParseYear(t.Get(i, ColPeriod))
		if !ok {
			rep.skip("invalid period")
			continue
		}
		v, ok := ParseNumber(t.Get(i, ColValue))
		if !ok {
			rep.skip("invalid value")
			continue
		}

		sex := SexBoth
		if t.Has(ColDim1) {
			s, ok := ParseSex(t.Get(i, ColDim1))
			if !ok {
				rep.skip("invalid sex")
				continue
			}
			sex = s
		}

		ind := strings.TrimSpace(t.Get(i, ColIndicator))
		if ind == "" {
			ind = DefaultIndicator
		}

		o := Observation{
			Indicator:      ind,
			ParentLocation: strings.TrimSpace(t.Get(i, ColParentLocation)),
			Location:       loc,
			Code:           strings.TrimSpace(t.Get(i, ColLocationCode)),
			Period:         year,
			Sex:            sex,
			Value:          v,
		}
		if lo, ok := ParseNumber(t.Get(i, ColValueLow)); ok {
			o.Low = &lo
		}
		if hi, ok := ParseNumber(t.Get(i, ColValueHigh)); ok {
			o.High = &hi
		}
		out = append(out, o)
		rep.keep()
	}
	return out, rep, nil
}
