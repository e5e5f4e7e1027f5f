package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from the JSONL observation log.

Use this after pulling changes from git or if the database becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status       string `json:"status"`
	Observations int    `json:"observations"`
	Years        []int  `json:"years"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindProject()

	obs, err := storage.ReadAll(config.ObservationsPath(root))
	if err != nil {
		exitWithError(ExitDataError, "reading observations: %v", err)
	}
	res, err := rebuildDatabase(root, obs)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d observations covering %d years\n", res.Observations, len(res.Years))
	} else {
		outputJSON(res)
	}
	return nil
}

// rebuildDatabase replaces the database contents with obs.
func rebuildDatabase(root string, obs []record.Observation) (RebuildResult, error) {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return RebuildResult{}, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		return RebuildResult{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	n, err := db.Replace(obs)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("rebuilding database: %w", err)
	}
	years, err := db.Years()
	if err != nil {
		return RebuildResult{}, fmt.Errorf("listing years: %w", err)
	}
	return RebuildResult{Status: "rebuilt", Observations: n, Years: years}, nil
}
