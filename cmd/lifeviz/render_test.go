package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vizwizards/lifeviz/internal/charts"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/sample"
	"github.com/vizwizards/lifeviz/internal/transform"
)

func sampleRequest(t *testing.T, kind, format string, sel transform.Selection) renderRequest {
	t.Helper()
	loader, err := sample.Loader()
	if err != nil {
		t.Fatalf("sample.Loader() error = %v", err)
	}
	return renderRequest{
		Kind:      kind,
		Format:    format,
		Selection: sel,
		Loader:    loader,
		Frame:     pipeline.DefaultFrame,
		Names:     reconcile.New(nil),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRenderChart(t *testing.T) {
	registry := charts.Default()
	sel := transform.Selection{Year: 2021}

	t.Run("svg", func(t *testing.T) {
		var buf bytes.Buffer
		res, err := renderChart(context.Background(), registry, sampleRequest(t, "box", "svg", sel), &buf)
		if err != nil {
			t.Fatalf("renderChart() error = %v", err)
		}
		if res.Shapes == 0 || res.Kind != "box" {
			t.Errorf("renderChart() = %+v, want shapes for box", res)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Errorf("output is not an SVG document: %.80s", buf.String())
		}
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := renderChart(context.Background(), registry, sampleRequest(t, "beeswarm", "html", sel), &buf)
		if err != nil {
			t.Fatalf("renderChart() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "<html") || !strings.Contains(out, "<svg") {
			t.Errorf("output is not a page embedding the chart: %.80s", out)
		}
	})
}

func TestRenderChart_Failures(t *testing.T) {
	registry := charts.Default()
	tests := []struct {
		name     string
		kind     string
		format   string
		sel      transform.Selection
		wantCode int
		wantErr  error
	}{
		{"unknown kind", "pie", "svg", transform.Selection{Year: 2021}, ExitError, charts.ErrUnknownChart},
		{"unknown format", "box", "png", transform.Selection{Year: 2021}, ExitError, nil},
		{"no data", "box", "svg", transform.Selection{Year: 1900, EndYear: 1901}, ExitNoData, pipeline.ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := renderChart(context.Background(), registry, sampleRequest(t, tt.kind, tt.format, tt.sel), &buf)
			if err == nil {
				t.Fatal("renderChart() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("renderChart() error = %v, want %v", err, tt.wantErr)
			}
			if got := exitCodeFor(err); got != tt.wantCode {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.wantCode)
			}
			if buf.Len() != 0 {
				t.Errorf("failed render wrote %d bytes", buf.Len())
			}
		})
	}
}

func TestRenderChart_TruncationWarning(t *testing.T) {
	var countries []string
	for _, c := range sample.Countries {
		countries = append(countries, c.WHOName)
	}
	countries = append(countries, "Atlantis")

	var buf bytes.Buffer
	req := sampleRequest(t, "radar", "svg", transform.Selection{Year: 2021, Countries: countries})
	res, err := renderChart(context.Background(), charts.Default(), req, &buf)
	if err != nil {
		t.Fatalf("renderChart() error = %v", err)
	}
	if res.Warning == "" {
		t.Error("Warning is empty, want truncation warning")
	}
	if len(res.Selection.Countries) != transform.MaxCountries {
		t.Errorf("Selection.Countries = %d, want %d", len(res.Selection.Countries), transform.MaxCountries)
	}
}
