// Package dataset fetches tabular and geographic resources and parses them into tables.
package dataset

import (
	"strings"
)

// Table is a parsed dataset: a header and rows of raw text cells.
// No coercion happens here; typed decoding lives in the record package.
type Table struct {
	Name        string
	Columns     []string
	Rows        [][]string
	Fingerprint string // blake2b-256 of the raw payload, hex encoded

	index map[string]int
}

// NewTable builds a table, trimming header names and stripping a UTF-8 BOM
// from the first column.
func NewTable(name string, columns []string, rows [][]string) *Table {
	cols := make([]string, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(c)
		if i == 0 {
			c = strings.TrimPrefix(c, "\uFEFF")
		}
		cols[i] = c
	}
	t := &Table{Name: name, Columns: cols, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table carries the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Get returns the cell at row i for the named column, or "" when the column is
// absent or the row is short.
func (t *Table) Get(i int, col string) string {
	j, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if j >= len(row) {
		return ""
	}
	return row[j]
}

// Require fails with a *SchemaError if any of cols is absent from the header.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: t.Name, Missing: missing}
	}
	return nil
}

// Filter returns a new table with only the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := &Table{Name: t.Name, Columns: t.Columns, Fingerprint: t.Fingerprint, index: t.index}
	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
