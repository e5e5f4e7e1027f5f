package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/storage"
)

var (
	importForce  bool
	importDryRun bool
)

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "Re-import even when no dataset changed")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Fetch and decode without writing")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the configured datasets",
	Long: `Fetch every tabular dataset in the manifest, decode the WHO life
expectancy table into observations and write them to
.lifeviz/observations.jsonl, then rebuild the SQLite query layer.

Each dataset's fingerprint is recorded in .lifeviz/manifest.json. When no
fingerprint changed since the last import the command does nothing unless
--force is given.

Usage:
  lifeviz import
  lifeviz import --dry-run`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

// ImportResult represents the result of an import operation.
type ImportResult struct {
	Status       string                    `json:"status"`
	Observations int                       `json:"observations"`
	Datasets     []storage.ImportedDataset `json:"datasets"`
}

func runImport(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)

	res, err := importDatasets(cmd.Context(), root, cfg, importForce, importDryRun)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		switch res.Status {
		case "unchanged":
			fmt.Println("All datasets unchanged since the last import (use --force to re-import)")
		default:
			verb := "Imported"
			if res.Status == "dry_run" {
				verb = "Would import"
			}
			fmt.Printf("%s %d observations\n", verb, res.Observations)
			for _, d := range res.Datasets {
				fmt.Printf("  %-12s %6d rows, %d kept, %d skipped\n", d.Name, d.Rows, d.Kept, d.Skipped)
				if len(d.Reasons) > 0 {
					fmt.Printf("  %-12s skip reasons: %s\n", "", formatList(d.Reasons, 3))
				}
			}
		}
	} else {
		outputJSON(res)
	}
	return nil
}

// importDatasets fetches, decodes and stores the project's tabular datasets.
func importDatasets(ctx context.Context, root string, cfg *config.Config, force, dryRun bool) (ImportResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var srcs []dataset.Source
	for _, s := range cfg.Datasets {
		if f, err := s.ResolvedFormat(); err == nil && f == dataset.FormatGeoJSON {
			continue
		}
		srcs = append(srcs, s)
	}

	tables, err := newFetcher(root, cfg).FetchAll(ctx, srcs...)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetching datasets: %w", err)
	}
	life, ok := tables[dataset.NameLife]
	if !ok {
		return ImportResult{}, fmt.Errorf("%w: no %q dataset configured", config.ErrInvalid, dataset.NameLife)
	}

	prev, err := storage.ReadManifest(config.ManifestPath(root))
	if err != nil {
		return ImportResult{}, err
	}
	changed := force
	var entries []storage.ImportedDataset
	for _, s := range srcs {
		t := tables[s.Name]
		rep, err := decodeReport(t)
		if err != nil {
			return ImportResult{}, err
		}
		entries = append(entries, storage.ImportedDataset{
			Name:        s.Name,
			Location:    s.Location,
			Fingerprint: t.Fingerprint,
			Rows:        t.Len(),
			Kept:        rep.Kept,
			Skipped:     rep.Skipped,
			Reasons:     rep.ReasonList(),
		})
		if prev.Changed(s.Name, t.Fingerprint) {
			changed = true
		}
	}
	if !changed {
		return ImportResult{Status: "unchanged", Observations: prev.Observations, Datasets: prev.Datasets}, nil
	}

	obs, _, err := record.DecodeObservations(life)
	if err != nil {
		return ImportResult{}, fmt.Errorf("decoding %s: %w", dataset.NameLife, err)
	}
	obs = storage.Dedupe(obs)
	res := ImportResult{Status: "imported", Observations: len(obs), Datasets: entries}
	if dryRun {
		res.Status = "dry_run"
		return res, nil
	}

	if err := storage.WriteAll(config.ObservationsPath(root), obs); err != nil {
		return ImportResult{}, fmt.Errorf("writing observations: %w", err)
	}
	m := &storage.Manifest{ImportedAt: time.Now().UTC(), Observations: len(obs), Datasets: entries}
	if err := storage.WriteManifest(config.ManifestPath(root), m); err != nil {
		return ImportResult{}, err
	}

	if _, err := rebuildDatabase(root, obs); err != nil {
		return ImportResult{}, err
	}
	res.Datasets = m.Datasets
	return res, nil
}

// decodeReport runs the decoder matching a well-known table for its
// keep/skip report. Other tables report every row as kept.
func decodeReport(t *dataset.Table) (record.Report, error) {
	var (
		rep record.Report
		err error
	)
	switch t.Name {
	case dataset.NameLife:
		_, rep, err = record.DecodeObservations(t)
	case dataset.NameCO2:
		_, rep, err = record.DecodeEmissions(t, "")
	case dataset.NameContinents:
		_, rep, err = record.DecodeMemberships(t)
	case dataset.NamePopulation:
		_, rep, err = record.DecodePopulation(t)
	default:
		return record.Report{Table: t.Name, Total: t.Len(), Kept: t.Len()}, nil
	}
	if err != nil {
		return rep, fmt.Errorf("decoding %s: %w", t.Name, err)
	}
	return rep, nil
}
