package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/charts"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/sample"
	"github.com/vizwizards/lifeviz/internal/transform"
	"github.com/vizwizards/lifeviz/internal/viz"
)

var (
	renderYear      int
	renderEndYear   int
	renderRegion    string
	renderSex       string
	renderCountries string
	renderFormat    string
	renderOutput    string
	renderSample    bool
)

func init() {
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "Year to show (default: config default_year, else latest)")
	renderCmd.Flags().IntVar(&renderEndYear, "end-year", 0, "Last year of a range (slope and trend charts)")
	renderCmd.Flags().StringVar(&renderRegion, "region", "", "Restrict to one WHO region or continent")
	renderCmd.Flags().StringVar(&renderSex, "sex", "both", "Sex: both, male or female")
	renderCmd.Flags().StringVar(&renderCountries, "countries", "", "Comma-separated countries (at most 10 are kept)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "svg", "Output format: svg or html")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file path (default: stdout)")
	renderCmd.Flags().BoolVar(&renderSample, "sample", false, "Render the bundled sample data; no project needed")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <kind>",
	Short: "Render one chart as SVG or HTML",
	Long: `Render one chart for a selection and write the SVG document or a
standalone HTML page with hover tooltips.

Run 'lifeviz render list' to see the chart kinds.

Examples:
  lifeviz render box --year 2021 > box.svg
  lifeviz render radar --countries "France,Japan,Kenya" --format html -o radar.html
  lifeviz render slope --year 2000 --end-year 2021 --region Africa
  lifeviz render flow --sample -o flow.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

// RenderResult is the response when rendering to a file.
type RenderResult struct {
	Kind      string              `json:"kind"`
	Output    string              `json:"output"`
	Format    string              `json:"format"`
	Shapes    int                 `json:"shapes"`
	Selection transform.Selection `json:"selection"`
	Warning   string              `json:"warning,omitempty"`
}

// renderRequest is everything one render needs.
type renderRequest struct {
	Kind      string
	Format    string
	Selection transform.Selection
	Loader    pipeline.Loader
	Frame     pipeline.Frame
	Names     *reconcile.Table
	Logger    *slog.Logger
}

func runRender(cmd *cobra.Command, args []string) error {
	registry := charts.Default()
	if args[0] == "list" {
		return listCharts(registry)
	}

	sex, ok := record.ParseSex(renderSex)
	if !ok {
		exitWithError(ExitError, "invalid sex %q (valid: both, male, female)", renderSex)
	}
	req := renderRequest{
		Kind:   args[0],
		Format: renderFormat,
		Selection: transform.Selection{
			Year:      renderYear,
			EndYear:   renderEndYear,
			Region:    renderRegion,
			Sex:       sex,
			Countries: splitList(renderCountries),
		},
		Frame:  pipeline.DefaultFrame,
		Logger: slog.Default(),
	}

	if renderSample {
		loader, err := sample.Loader()
		if err != nil {
			exitWithError(ExitError, "loading sample data: %v", err)
		}
		req.Loader = loader
		req.Names = reconcile.New(nil)
	} else {
		root := mustFindProject()
		cfg := mustLoadConfig(root)
		req.Loader = newLoader(root, cfg)
		req.Frame = cfg.Chart.Frame
		req.Names = newNames(cfg)
		if req.Selection.Year == 0 {
			req.Selection.Year = cfg.Chart.DefaultYear
		}
	}

	var buf bytes.Buffer
	res, err := renderChart(cmd.Context(), registry, req, &buf)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if renderOutput == "" {
		os.Stdout.Write(buf.Bytes())
		if res.Warning != "" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", res.Warning)
		}
		return nil
	}
	if err := os.WriteFile(renderOutput, buf.Bytes(), 0644); err != nil {
		exitWithError(ExitError, "writing output file: %v", err)
	}
	res.Output = renderOutput
	if humanOutput {
		fmt.Printf("Rendered %s (%d shapes) to %s\n", res.Kind, res.Shapes, res.Output)
		if res.Warning != "" {
			fmt.Printf("Warning: %s\n", res.Warning)
		}
	} else {
		outputJSON(res)
	}
	return nil
}

// renderChart runs one chart update and writes it to w in req.Format.
// A pipeline failure is returned without writing anything.
func renderChart(ctx context.Context, registry *charts.Registry, req renderRequest, w io.Writer) (RenderResult, error) {
	if req.Format != "svg" && req.Format != "html" {
		return RenderResult{}, fmt.Errorf("unknown format %q (valid: svg, html)", req.Format)
	}
	def, err := registry.Lookup(req.Kind)
	if err != nil {
		return RenderResult{}, err
	}
	c := pipeline.NewChart(def, req.Loader,
		pipeline.WithFrame(req.Frame),
		pipeline.WithLogger(req.Logger),
		pipeline.WithNames(req.Names))
	up, err := c.Update(ctx, req.Selection)
	if err != nil {
		return RenderResult{}, fmt.Errorf("%s: %s: %w", req.Kind, pipeline.Message(err), err)
	}

	res := RenderResult{Kind: req.Kind, Format: req.Format, Shapes: up.Scene.Len(), Selection: up.Selection}
	if up.Truncated {
		res.Warning = fmt.Sprintf("country selection truncated to %d", transform.MaxCountries)
	}

	if req.Format == "svg" {
		if err := up.Scene.WriteSVG(w); err != nil {
			return RenderResult{}, fmt.Errorf("writing svg: %w", err)
		}
		return res, nil
	}
	opts := viz.DefaultOptions()
	opts.Kind = req.Kind
	opts.Charts = registry.Infos()
	opts.Selection = up.Selection
	opts.Warning = res.Warning
	page, err := viz.GeneratePage(up.Scene, opts)
	if err != nil {
		return RenderResult{}, fmt.Errorf("generating page: %w", err)
	}
	if _, err := io.WriteString(w, page); err != nil {
		return RenderResult{}, fmt.Errorf("writing page: %w", err)
	}
	return res, nil
}

// ChartListResult is the response for 'render list'.
type ChartListResult struct {
	Charts []pipeline.Info `json:"charts"`
}

func listCharts(registry *charts.Registry) error {
	infos := registry.Infos()
	if humanOutput {
		for _, info := range infos {
			fmt.Printf("%-12s %s\n", info.Kind, info.Title)
		}
		return nil
	}
	return outputJSON(ChartListResult{Charts: infos})
}
