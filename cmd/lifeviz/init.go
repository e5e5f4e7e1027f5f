package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/sample"
)

var initSample bool

func init() {
	initCmd.Flags().BoolVar(&initSample, "sample", false, "Write the bundled sample datasets into the data directory")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a lifeviz project in the current directory",
	Long: `Initialize a lifeviz project in the current directory.

Creates .lifeviz/ with a default config.yml and an empty cache directory.
The default manifest expects life.csv, co2.csv, continents.csv and
population.csv in ./data and fetches world geometry over HTTP.

With --sample, small synthetic datasets (including world.geojson) are
written to ./data so every chart renders offline.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

// InitResult is the response for the init command.
type InitResult struct {
	Status  string   `json:"status"`
	Path    string   `json:"path"`
	DataDir string   `json:"data_dir"`
	Sample  []string `json:"sample,omitempty"`
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	res, err := initProject(root, initSample)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized lifeviz project in %s\n", res.Path)
		if len(res.Sample) > 0 {
			fmt.Printf("Wrote %d sample files to %s\n", len(res.Sample), res.DataDir)
		}
	} else {
		outputJSON(res)
	}
	return nil
}

// initProject creates the project layout under root.
func initProject(root string, withSample bool) (InitResult, error) {
	if config.IsProject(root) {
		return InitResult{}, fmt.Errorf("already initialized: %s", config.ProjectPath(root))
	}
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return InitResult{}, fmt.Errorf("creating cache directory: %w", err)
	}

	cfg := config.Default()
	res := InitResult{Status: "initialized", Path: config.ProjectPath(root), DataDir: cfg.ResolveDataDir(root)}
	if withSample {
		cfg.Datasets = sample.Sources()
		if err := sample.Write(res.DataDir); err != nil {
			return InitResult{}, fmt.Errorf("writing sample data: %w", err)
		}
		for _, s := range cfg.Datasets {
			res.Sample = append(res.Sample, s.Location)
		}
	}
	if err := cfg.Save(root); err != nil {
		return InitResult{}, fmt.Errorf("saving config: %w", err)
	}
	return res, nil
}
