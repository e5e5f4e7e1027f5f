package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// ImportedDataset records one source as it was last imported.
type ImportedDataset struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Fingerprint string   `json:"fingerprint"`
	Rows        int      `json:"rows"`
	Kept        int      `json:"kept"`
	Skipped     int      `json:"skipped"`
	Reasons     []string `json:"reasons,omitempty"`
}

// Manifest describes the last import.
type Manifest struct {
	ImportedAt   time.Time         `json:"imported_at"`
	Observations int               `json:"observations"`
	Datasets     []ImportedDataset `json:"datasets"`
}

// Dataset returns the entry for name.
func (m *Manifest) Dataset(name string) (ImportedDataset, bool) {
	for _, d := range m.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return ImportedDataset{}, false
}

// Changed reports whether a source's payload differs from the last import.
func (m *Manifest) Changed(name, fingerprint string) bool {
	d, ok := m.Dataset(name)
	return !ok || d.Fingerprint != fingerprint
}

// ReadManifest loads a manifest. A missing file yields an empty manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// WriteManifest saves a manifest with datasets sorted by name.
func WriteManifest(path string, m *Manifest) error {
	sort.Slice(m.Datasets, func(i, j int) bool { return m.Datasets[i].Name < m.Datasets[j].Name })
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
