package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseCSV parses comma-delimited data with a header row.
func ParseCSV(name string, data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // tolerate ragged rows; missing cells read as ""
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
		}
		return nil, fmt.Errorf("%s: reading header: %w: %v", name, ErrMalformed, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue // Skip blank lines
		}
		rows = append(rows, rec)
	}
	return NewTable(name, header, rows), nil
}

// ParseJSON parses a JSON array of flat objects. Columns follow first-seen key
// order across all objects. Numbers keep their literal text, booleans become
// "true"/"false" and null becomes "".
func ParseJSON(name string, data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%s: %w: expected a JSON array of objects", name, ErrMalformed)
	}

	var columns []string
	colIdx := make(map[string]int)
	var objects []map[string]string

	for dec.More() {
		obj, err := decodeFlatObject(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: object %d: %w: %v", name, len(objects)+1, ErrMalformed, err)
		}
		for _, kv := range obj {
			if _, seen := colIdx[kv[0]]; !seen {
				colIdx[kv[0]] = len(columns)
				columns = append(columns, kv[0])
			}
		}
		m := make(map[string]string, len(obj))
		for _, kv := range obj {
			m[kv[0]] = kv[1]
		}
		objects = append(objects, m)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}

	rows := make([][]string, len(objects))
	for i, m := range objects {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = m[c]
		}
		rows[i] = row
	}
	return NewTable(name, columns, rows), nil
}

// decodeFlatObject reads one object as ordered key/value text pairs.
func decodeFlatObject(dec *json.Decoder) ([][2]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var pairs [][2]string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		val, err := scalarText(raw)
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		pairs = append(pairs, [2]string{key, val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// scalarText converts a raw JSON scalar to its cell text.
func scalarText(raw json.RawMessage) (string, error) {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 {
		return "", nil
	}
	switch s[0] {
	case '"':
		var v string
		if err := json.Unmarshal(s, &v); err != nil {
			return "", err
		}
		return v, nil
	case '{', '[':
		return "", fmt.Errorf("nested values are not supported")
	case 'n':
		return "", nil
	default:
		// Numbers and booleans keep their literal text.
		return string(s), nil
	}
}

// ParseXLSX reads one worksheet of an xlsx workbook, using its first row as the header.
func ParseXLSX(name string, data []byte, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrMalformed, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: reading sheet %q: %w: %v", name, sheet, ErrMalformed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}

	var body [][]string
	for _, row := range rows[1:] {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			body = append(body, row)
		}
	}
	return NewTable(name, rows[0], body), nil
}
