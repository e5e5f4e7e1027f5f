package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/api"
	"github.com/vizwizards/lifeviz/internal/charts"
	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/sample"
	"github.com/vizwizards/lifeviz/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr    string
	serveLogJSON bool
	serveSample  bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: config server.addr or "+config.DefaultAddr+")")
	serveCmd.Flags().BoolVar(&serveLogJSON, "log-json", false, "Log as JSON lines")
	serveCmd.Flags().BoolVar(&serveSample, "sample", false, "Serve the bundled sample data; no project needed")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the charts and the read API over HTTP",
	Long: `Serve the chart pages, SVG renders and the observation read API.

Endpoints:
  GET /health
  GET /years, /regions, /countries?region=
  GET /life?years=&metric=le|hle|both&sex=&age=birth|60|both&continent=&country=
  GET /global?sex=
  GET /charts                 chart catalogue
  GET /charts/{kind}          HTML page with controls and tooltips
  GET /charts/{kind}.svg      SVG document
  GET /charts/{kind}/hover    tooltip for ?x=&y=

The read API queries the SQLite index built by 'lifeviz import'. Datasets
are fetched once per process and cached.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(serveLogJSON)
	slog.SetDefault(logger)

	var (
		store    *storage.DB
		loader   pipeline.Loader
		addr     = config.DefaultAddr
		origins  []string
		handOpts = []api.Option{api.WithLogger(logger)}
	)
	if serveSample {
		db, err := sampleStore()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		store = db
		l, err := sample.Loader()
		if err != nil {
			exitWithError(ExitError, "loading sample data: %v", err)
		}
		loader = l
		handOpts = append(handOpts, api.WithNames(reconcile.New(nil)))
	} else {
		root := mustFindProject()
		cfg := mustLoadConfig(root)
		store = mustOpenDatabase(root)
		loader = newLoader(root, cfg)
		if cfg.Server.Addr != "" {
			addr = cfg.Server.Addr
		}
		origins = cfg.Server.AllowedOrigins
		handOpts = append(handOpts,
			api.WithFrame(cfg.Chart.Frame),
			api.WithNames(newNames(cfg)),
			api.WithDefaultYear(cfg.Chart.DefaultYear))
	}
	defer store.Close()
	if serveAddr != "" {
		addr = serveAddr
	}

	h := api.NewHandler(store, charts.Default(), loader, handOpts...)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(h, origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", addr, "sample", serveSample)
		if humanOutput {
			fmt.Fprintf(os.Stderr, "Serving on http://%s\n", addr)
		}
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			exitWithError(ExitError, "server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}

// sampleStore opens an in-memory database holding the sample observations.
func sampleStore() (*storage.DB, error) {
	obs, err := sample.Observations()
	if err != nil {
		return nil, fmt.Errorf("decoding sample observations: %w", err)
	}
	db, err := storage.OpenDB(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Replace(obs); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading sample observations: %w", err)
	}
	return db, nil
}
