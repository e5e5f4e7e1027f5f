package viz

import (
	"strings"
	"testing"

	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

func testScene() *scene.Scene {
	sc := scene.New(400, 300)
	sc.Title = "Life expectancy <by region>"
	sc.Add(scene.Shape{
		Key: "France", Kind: scene.KindCircle, X: 50, Y: 50, R: 10,
		Style:   scene.Style{Fill: "#1f77b4"},
		Tooltip: "France: 82.3", HoverFill: "#f4a261", HoverScale: 1.5,
	})
	return sc
}

func TestGeneratePage_NilScene(t *testing.T) {
	if _, err := GeneratePage(nil, DefaultOptions()); err == nil {
		t.Error("GeneratePage(nil) should fail")
	}
}

func TestGeneratePage_EmbedsSVG(t *testing.T) {
	html, err := GeneratePage(testScene(), DefaultOptions())
	if err != nil {
		t.Fatalf("GeneratePage() error = %v", err)
	}

	checks := []string{
		"<!DOCTYPE html>",
		"<title>Life expectancy &lt;by region&gt;</title>",
		`data-key="France"`,
		`data-hover-fill="#f4a261"`,
		`<div id="tooltip">`,
		`"offset":[10,-28]`,
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, `<form id="controls">`) {
		t.Error("controls rendered without a base path")
	}
}

func TestGeneratePage_Controls(t *testing.T) {
	opts := DefaultOptions()
	opts.Kind = "radar"
	opts.BasePath = "/charts/"
	opts.Charts = []pipeline.Info{{Kind: "box", Title: "Box"}, {Kind: "radar", Title: "Radar"}}
	opts.Years = []int{2019, 2021}
	opts.Regions = []string{"Africa", "Europe"}
	opts.Countries = []string{"France", "Kenya"}
	opts.Selection = transform.Selection{Year: 2021, Region: "Europe", Sex: record.SexFemale, Countries: []string{"France"}}
	opts.Warning = "selection truncated to 10 countries"

	html, err := GeneratePage(testScene(), opts)
	if err != nil {
		t.Fatalf("GeneratePage() error = %v", err)
	}

	checks := []string{
		`<form id="controls">`,
		`<option value="radar" selected>Radar</option>`,
		`<option value="2021" selected>2021</option>`,
		`<option value="Europe" selected>Europe</option>`,
		`<option value="female" selected>Female</option>`,
		`<option value="France" selected>France</option>`,
		`<option value="Kenya">Kenya</option>`,
		"selection truncated to 10 countries",
		`"base":"/charts"`,
		`"maxCountries":10`,
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestGeneratePage_EmptyScene(t *testing.T) {
	html, err := GeneratePage(scene.Empty(400, 300, "Box plot", "no data for selection"), DefaultOptions())
	if err != nil {
		t.Fatalf("GeneratePage() error = %v", err)
	}
	if !strings.Contains(html, "no data for selection") {
		t.Error("empty scene message not shown")
	}
	if strings.Contains(html, `class="mark"`) {
		t.Error("empty scene should have no hoverable marks")
	}
}
