package record

import (
	"strings"

	"github.com/vizwizards/lifeviz/internal/dataset"
)

const (
	ColCountry   = "Country"
	ColContinent = "Continent"
)

// Membership assigns a country to a continent.
type Membership struct {
	Country   string `json:"country"`
	Continent string `json:"continent"`
}

// DecodeMemberships decodes a Country/Continent table. Rows with either cell
// blank are skipped.
func DecodeMemberships(t *dataset.Table) ([]Membership, Report, error) {
	rep := Report{Table: t.Name}
	if err := t.Require(ColCountry, ColContinent); err != nil {
		return nil, rep, err
	}
	out := make([]Membership, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		c := strings.TrimSpace(t.Get(i, ColCountry))
		k := strings.TrimSpace(t.Get(i, ColContinent))
		if c == "" || k == "" {
			rep.skip("missing country or continent")
			continue
		}
		out = append(out, Membership{Country: c, Continent: k})
		rep.keep()
	}
	return out, rep, nil
}
