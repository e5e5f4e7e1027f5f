// Package storage persists imported observations as JSONL, the source of
// truth, and mirrors them into SQLite for queries.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vizwizards/lifeviz/internal/record"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all observations from a JSONL file.
func ReadAll(path string) ([]record.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file reads as empty
		}
		return nil, fmt.Errorf("opening observations file: %w", err)
	}
	defer f.Close()

	var obs []record.Observation
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var o record.Observation
		if err := json.Unmarshal(line, &o); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		obs = append(obs, o)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading observations file: %w", err)
	}
	return obs, nil
}

// Append adds observations to the end of a JSONL file.
func Append(path string, obs ...record.Observation) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening observations file for append: %w", err)
	}
	defer f.Close()
	return writeLines(f, obs)
}

// WriteAll writes all observations to a JSONL file, replacing existing content.
func WriteAll(path string, obs []record.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating observations file: %w", err)
	}
	if err := writeLines(f, obs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeLines(f *os.File, obs []record.Observation) error {
	w := bufio.NewWriter(f)
	for i, o := range obs {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encoding observation %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing observation %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return w.Flush()
}

// Key identifies one observation: the same indicator, place, year and sex
// never appears twice in the store.
func Key(o record.Observation) string {
	return fmt.Sprintf("%s|%s|%d|%s", o.Indicator, o.Location, o.Period, o.Sex)
}

// Dedupe keeps the last observation for each Key, in first-seen order.
func Dedupe(obs []record.Observation) []record.Observation {
	idx := make(map[string]int, len(obs))
	var out []record.Observation
	for _, o := range obs {
		k := Key(o)
		if i, ok := idx[k]; ok {
			out[i] = o
			continue
		}
		idx[k] = len(out)
		out = append(out, o)
	}
	return out
}
