// Package record decodes dataset tables into typed records.
//
// Numeric cells are trimmed and parsed; empty cells, "NA", "N/A", "-" and
// anything unparseable count as absent. A record whose required number is
// absent is skipped and counted in the Report, never coerced to zero.
package record

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

var absentMarkers = map[string]bool{
	"":    true,
	"NA":  true,
	"N/A": true,
	"-":   true,
	"NAN": true,
}

// ParseNumber coerces a cell to a float. ok is false when the cell is absent.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if absentMarkers[strings.ToUpper(s)] {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseYear coerces a cell to a calendar year. "2021" and "2021.0" both parse.
func ParseYear(s string) (int, bool) {
	v, ok := ParseNumber(s)
	if !ok || v != math.Trunc(v) || v < 0 || v > 9999 {
		return 0, false
	}
	return int(v), true
}

// Report counts the outcome of decoding one table.
type Report struct {
	Table   string         `json:"table"`
	Total   int            `json:"total"`
	Kept    int            `json:"kept"`
	Skipped int            `json:"skipped"`
	Reasons map[string]int `json:"reasons,omitempty"`
}

func (r *Report) keep() {
	r.Total++
	r.Kept++
}

func (r *Report) skip(reason string) {
	r.Total++
	r.Skipped++
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

// ReasonList returns the skip reasons sorted by name.
func (r Report) ReasonList() []string {
	out := make([]string, 0, len(r.Reasons))
	for k := range r.Reasons {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
