// Package viz wraps a rendered chart in a self-contained HTML page with
// hover tooltips and selection controls.
package viz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/vizwizards/lifeviz/internal/interact"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/scene"
	"github.com/vizwizards/lifeviz/internal/transform"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("page").Parse(pageTemplate))
}

// PageOptions configures page generation.
type PageOptions struct {
	// Kind is the chart on the page; Charts fills the chart switcher.
	Kind   string
	Charts []pipeline.Info

	Selection transform.Selection
	Years     []int
	Regions   []string
	Countries []string

	// BasePath is where the page fetches <kind>.svg from, e.g. "/charts".
	// Controls are hidden when it is empty.
	BasePath string
	// Warning is shown above the chart, e.g. after truncating a selection.
	Warning string
	// Offset is the tooltip offset from the pointer.
	Offset [2]float64
}

// DefaultOptions returns default page options.
func DefaultOptions() PageOptions {
	return PageOptions{Offset: interact.DefaultOffset}
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type templateData struct {
	Title     string
	SVG       template.HTML
	Controls  bool
	Charts    []option
	Years     []option
	Regions   []option
	Sexes     []option
	Countries []option
	Warning   string
	Config    template.JS
}

// pageConfig is handed to the page script.
type pageConfig struct {
	Kind    string     `json:"kind"`
	Base    string     `json:"base"`
	Offset  [2]float64 `json:"offset"`
	MaxSel  int        `json:"maxCountries"`
	EndYear int        `json:"endYear,omitempty"`
}

// GeneratePage returns an HTML page embedding the scene's SVG.
func GeneratePage(sc *scene.Scene, opts PageOptions) (string, error) {
	if sc == nil {
		return "", fmt.Errorf("scene cannot be nil")
	}

	var svg bytes.Buffer
	if err := sc.WriteSVG(&svg); err != nil {
		return "", fmt.Errorf("writing svg: %w", err)
	}

	cfg, err := json.Marshal(pageConfig{
		Kind:    opts.Kind,
		Base:    strings.TrimSuffix(opts.BasePath, "/"),
		Offset:  opts.Offset,
		MaxSel:  transform.MaxCountries,
		EndYear: opts.Selection.EndYear,
	})
	if err != nil {
		return "", fmt.Errorf("encoding page config: %w", err)
	}

	sel := opts.Selection
	title := sc.Title
	if title == "" {
		title = opts.Kind
	}
	data := templateData{
		Title:    title,
		SVG:      template.HTML(svg.String()),
		Controls: opts.BasePath != "",
		Warning:  opts.Warning,
		Config:   template.JS(cfg),
	}
	for _, info := range opts.Charts {
		data.Charts = append(data.Charts, option{Value: info.Kind, Label: info.Title, Selected: info.Kind == opts.Kind})
	}
	data.Years = append(data.Years, option{Value: "", Label: "Latest", Selected: sel.Year == 0})
	for _, y := range opts.Years {
		v := fmt.Sprint(y)
		data.Years = append(data.Years, option{Value: v, Label: v, Selected: sel.Year == y})
	}
	data.Regions = append(data.Regions, option{Value: "", Label: "All regions", Selected: sel.Region == ""})
	for _, r := range opts.Regions {
		data.Regions = append(data.Regions, option{Value: r, Label: r, Selected: sel.Region == r})
	}
	for _, s := range []record.Sex{record.SexBoth, record.SexFemale, record.SexMale} {
		data.Sexes = append(data.Sexes, option{Value: sexParam(s), Label: string(s), Selected: sel.Sex == s || (sel.Sex == "" && s == record.SexBoth)})
	}
	for _, c := range opts.Countries {
		data.Countries = append(data.Countries, option{Value: c, Label: c, Selected: slices.Contains(sel.Countries, c)})
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sexParam(s record.Sex) string {
	switch s {
	case record.SexFemale:
		return "female"
	case record.SexMale:
		return "male"
	}
	return "both"
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      background: #fafafa;
    }
    #controls {
      display: flex;
      flex-wrap: wrap;
      gap: 12px;
      padding: 12px 16px;
      background: #fff;
      border-bottom: 1px solid #ddd;
      font-size: 13px;
    }
    #controls label { display: flex; flex-direction: column; gap: 4px; color: #555; }
    #controls select[multiple] { min-width: 180px; height: 90px; }
    #warning {
      margin: 8px 16px;
      padding: 6px 10px;
      background: #fff3cd;
      border: 1px solid #ffe08a;
      border-radius: 4px;
      font-size: 13px;
    }
    #warning:empty { display: none; }
    #chart { padding: 16px; }
    #chart svg { max-width: 100%; height: auto; background: #fff; }
    #tooltip {
      position: absolute;
      pointer-events: none;
      background: rgba(255, 255, 255, 0.95);
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 6px 8px;
      font-size: 12px;
      white-space: pre-line;
      box-shadow: 0 2px 6px rgba(0, 0, 0, 0.15);
      opacity: 0;
    }
  </style>
</head>
<body>
  {{- if .Controls}}
  <form id="controls">
    <label>Chart
      <select name="kind">
        {{- range .Charts}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    <label>Year
      <select name="year">
        {{- range .Years}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    <label>Region
      <select name="region">
        {{- range .Regions}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    <label>Sex
      <select name="sex">
        {{- range .Sexes}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    {{- if .Countries}}
    <label>Countries
      <select name="countries" multiple>
        {{- range .Countries}}
        <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{- end}}
      </select>
    </label>
    {{- end}}
  </form>
  {{- end}}
  <div id="warning">{{.Warning}}</div>
  <div id="chart">{{.SVG}}</div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const cfg = {{.Config}};
      const chart = document.getElementById('chart');
      const tooltip = document.getElementById('tooltip');
      const warning = document.getElementById('warning');
      let hovered = null;

      // idle -> hovering(key) on enter, back to idle on leave.
      function enter(mark, evt) {
        if (hovered && hovered !== mark) leave();
        hovered = mark;
        const shape = mark.lastElementChild;
        if (mark.dataset.hoverFill) {
          shape.dataset.fill = shape.style.fill;
          shape.style.fill = mark.dataset.hoverFill;
        }
        const s = parseFloat(mark.dataset.hoverScale || '1');
        if (s !== 1) {
          const b = shape.getBBox();
          const cx = b.x + b.width / 2, cy = b.y + b.height / 2;
          mark.setAttribute('transform',
            'translate(' + cx + ' ' + cy + ') scale(' + s + ') translate(' + (-cx) + ' ' + (-cy) + ')');
        }
        const title = mark.querySelector('title');
        tooltip.textContent = title ? title.textContent : '';
        tooltip.style.opacity = 1;
        move(evt);
      }

      function move(evt) {
        if (!hovered) return;
        tooltip.style.left = (evt.pageX + cfg.offset[0]) + 'px';
        tooltip.style.top = (evt.pageY + cfg.offset[1]) + 'px';
      }

      function leave() {
        if (!hovered) return;
        const shape = hovered.lastElementChild;
        if (shape.dataset.fill !== undefined) {
          shape.style.fill = shape.dataset.fill;
          delete shape.dataset.fill;
        }
        hovered.removeAttribute('transform');
        hovered = null;
        tooltip.style.opacity = 0;
      }

      chart.addEventListener('mouseover', function(evt) {
        const mark = evt.target.closest('g.mark');
        if (mark) enter(mark, evt);
      });
      chart.addEventListener('mousemove', move);
      chart.addEventListener('mouseout', function(evt) {
        const mark = evt.target.closest('g.mark');
        if (mark && !mark.contains(evt.relatedTarget)) leave();
      });

      const form = document.getElementById('controls');
      if (!form || !cfg.base) return;

      form.addEventListener('change', function() {
        const data = new FormData(form);
        const kind = data.get('kind') || cfg.kind;
        const params = new URLSearchParams();
        for (const key of ['year', 'region', 'sex']) {
          if (data.get(key)) params.set(key, data.get(key));
        }
        if (cfg.endYear) params.set('end_year', cfg.endYear);
        const countries = data.getAll('countries');
        if (countries.length) params.set('countries', countries.join(','));

        if (kind !== cfg.kind) {
          window.location = cfg.base + '/' + encodeURIComponent(kind) + '?' + params;
          return;
        }
        history.replaceState(null, '', cfg.base + '/' + encodeURIComponent(kind) + '?' + params);
        fetch(cfg.base + '/' + encodeURIComponent(kind) + '.svg?' + params)
          .then(function(resp) {
            warning.textContent = resp.headers.get('X-Lifeviz-Warning') || '';
            return resp.text();
          })
          .then(function(svg) {
            leave();
            chart.innerHTML = svg;
          });
      });
    })();
  </script>
</body>
</html>`
