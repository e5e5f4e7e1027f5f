package record

import (
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

// World Bank wide-format columns.
const (
	ColCountryName = "Country Name"
	ColCountryCode = "Country Code"
)

// Population is one entity-year head count.
type Population struct {
	Entity     string  `json:"entity"`
	Code       string  `json:"code,omitempty"`
	Year       int     `json:"year"`
	Population float64 `json:"population"`
}

// DecodePopulation accepts either the World Bank wide layout (Country Name,
// Country Code, one column per year) or a long layout (Entity, Code, Year,
// Population).
func DecodePopulation(t *dataset.Table) ([]Population, Report, error) {
	if t.Has(ColCountryName) {
		return decodeWidePopulation(t)
	}
	rep := Report{Table: t.Name}
	if err := t.Require(ColEntity, ColYear, MeasurePopulation); err != nil {
		return nil, rep, err
	}
	out := make([]Population, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		entity := strings.TrimSpace(t.Get(i, ColEntity))
		year, yok := ParseYear(t.Get(i, ColYear))
		pop, pok := ParseNumber(t.Get(i, MeasurePopulation))
		switch {
		case entity == "":
			rep.skip("missing entity")
		case !yok:
			rep.skip("invalid year")
		case !pok || pop < 0:
			rep.skip("invalid population")
		default:
			out = append(out, Population{Entity: entity, Code: strings.TrimSpace(t.Get(i, ColCode)), Year: year, Population: pop})
			rep.keep()
		}
	}
	return out, rep, nil
}

func decodeWidePopulation(t *dataset.Table) ([]Population, Report, error) {
	rep := Report{Table: t.Name}
	years := make(map[string]int)
	for _, c := range t.Columns {
		if y, ok := ParseYear(c); ok && len(strings.TrimSpace(c)) == 4 {
			years[c] = y
		}
	}
	if len(years) == 0 {
		return nil, rep, &dataset.SchemaError{Table: t.Name, Missing: []string{"<year columns>"}}
	}

	var out []Population
	for i := 0; i < t.Len(); i++ {
		entity := strings.TrimSpace(t.Get(i, ColCountryName))
		code := strings.TrimSpace(t.Get(i, ColCountryCode))
		// Each year cell counts as one record.
		for _, c := range t.Columns {
			year, isYear := years[c]
			if !isYear {
				continue
			}
			pop, ok := ParseNumber(t.Get(i, c))
			switch {
			case entity == "":
				rep.skip("missing entity")
			case !ok || pop < 0:
				rep.skip("invalid population")
			default:
				out = append(out, Population{Entity: entity, Code: code, Year: year, Population: pop})
				rep.keep()
			}
		}
	}
	return out, rep, nil
}
