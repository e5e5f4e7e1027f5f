package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
)

// NameColumns are the columns tried, in order, for a table's country names.
var NameColumns = []string{
	record.ColLocation,
	record.ColEntity,
	record.ColCountry,
	record.ColCountryName,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <dataset> <dataset>",
	Short: "Report country names that do not match between two datasets",
	Long: `Join the country names of two configured datasets by canonical name and
list the names that have no counterpart on the other side.

Variants listed under "reconcile:" in config.yml are applied on top of the
built-in WHO name table.

Example:
  lifeviz reconcile life co2
  lifeviz reconcile life world --human`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

// ReconcileResult is the response for the reconcile command.
type ReconcileResult struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	reconcile.Result
}

func runReconcile(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)
	loader := newLoader(root, cfg)

	left, err := datasetNames(cmd.Context(), loader, cfg.Sources(), args[0])
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	right, err := datasetNames(cmd.Context(), loader, cfg.Sources(), args[1])
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	res := ReconcileResult{Left: args[0], Right: args[1], Result: newNames(cfg).Join(left, right)}

	if humanOutput {
		fmt.Printf("%d matched names\n", len(res.Matched))
		fmt.Printf("Only in %s (%d): %s\n", res.Left, len(res.UnmatchedLeft), formatList(res.UnmatchedLeft, 20))
		fmt.Printf("Only in %s (%d): %s\n", res.Right, len(res.UnmatchedRight), formatList(res.UnmatchedRight, 20))
	} else {
		outputJSON(res)
	}
	return nil
}

// datasetNames returns the distinct country names of a dataset: feature
// names for GeoJSON, the first present name column otherwise.
func datasetNames(ctx context.Context, loader pipeline.Loader, sources map[string]dataset.Source, name string) ([]string, error) {
	src, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	if f, err := src.ResolvedFormat(); err == nil && f == dataset.FormatGeoJSON {
		fc, err := loader.Geo(ctx, name)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(fc.Features))
		for _, feat := range fc.Features {
			if n := dataset.FeatureName(feat); n != "" {
				names = append(names, n)
			}
		}
		return names, nil
	}

	tables, err := loader.Tables(ctx, name)
	if err != nil {
		return nil, err
	}
	return tableNames(tables[name])
}

// tableNames returns the distinct values of t's name column in row order.
func tableNames(t *dataset.Table) ([]string, error) {
	col := ""
	for _, c := range NameColumns {
		if t.Has(c) {
			col = c
			break
		}
	}
	if col == "" {
		return nil, &dataset.SchemaError{Table: t.Name, Missing: []string{strings.Join(NameColumns, " | ")}}
	}
	seen := make(map[string]bool)
	var names []string
	for i := 0; i < t.Len(); i++ {
		n := strings.TrimSpace(t.Get(i, col))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names, nil
}
