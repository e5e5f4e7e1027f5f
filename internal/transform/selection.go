// Package transform filters, groups and reduces typed records into the shapes
// the charts bind to.
package transform

import (
	"strings"

	"github.com/vizwizards/lifeviz/internal/record"
)

// MaxCountries caps a multi-country selection.
const MaxCountries = 10

// Selection is the user-controlled view: a year (or year range), a region,
// a sex and an optional country list.
type Selection struct {
	Year      int        `json:"year,omitempty"`
	EndYear   int        `json:"end_year,omitempty"`
	Region    string     `json:"region,omitempty"`
	Sex       record.Sex `json:"sex,omitempty"`
	Countries []string   `json:"countries,omitempty"`
}

// Normalize trims and deduplicates Countries, truncates them to MaxCountries
// and defaults Sex to both sexes. truncated reports whether countries were
// dropped.
func (s Selection) Normalize() (out Selection, truncated bool) {
	out = s
	out.Region = strings.TrimSpace(s.Region)
	if out.Sex == "" {
		out.Sex = record.SexBoth
	}
	if out.EndYear != 0 && out.Year != 0 && out.EndYear < out.Year {
		out.Year, out.EndYear = out.EndYear, out.Year
	}

	seen := make(map[string]bool, len(s.Countries))
	out.Countries = nil
	for _, c := range s.Countries {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out.Countries = append(out.Countries, c)
	}
	if len(out.Countries) > MaxCountries {
		out.Countries = out.Countries[:MaxCountries]
		truncated = true
	}
	return out, truncated
}

// HasCountry reports whether name is selected. An empty list selects all.
func (s Selection) HasCountry(name string) bool {
	if len(s.Countries) == 0 {
		return true
	}
	for _, c := range s.Countries {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// InRegion reports whether region matches the selection. An empty region or
// "All" selects every region.
func (s Selection) InRegion(region string) bool {
	return s.Region == "" || strings.EqualFold(s.Region, "all") || strings.EqualFold(s.Region, region)
}
