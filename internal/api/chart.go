package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/interact"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/transform"
	"github.com/vizwizards/lifeviz/internal/viz"
)

// ParseSelection reads year, end_year, region, sex and countries from a
// query string.
func ParseSelection(r *http.Request) (transform.Selection, error) {
	v := r.URL.Query()
	var sel transform.Selection

	for _, p := range []struct {
		name string
		dst  *int
	}{{"year", &sel.Year}, {"end_year", &sel.EndYear}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return sel, fmt.Errorf("invalid %s %q", p.name, s)
		}
		*p.dst = n
	}

	sex, ok := record.ParseSex(v.Get("sex"))
	if !ok {
		return sel, fmt.Errorf("invalid sex %q (valid: both, male, female)", v.Get("sex"))
	}
	sel.Sex = sex
	sel.Region = v.Get("region")
	sel.Countries = splitList(v.Get("countries"))
	return sel, nil
}

// ListCharts describes the available charts.
func (h *Handler) ListCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"charts": h.registry.Infos()})
}

// render runs one chart for the request. The result always carries a
// scene; err is the pipeline failure, if any.
func (h *Handler) render(r *http.Request, kind string) (pipeline.Result, error) {
	def, err := h.registry.Lookup(kind)
	if err != nil {
		return pipeline.Result{}, err
	}
	sel, err := ParseSelection(r)
	if err != nil {
		return pipeline.Result{}, err
	}
	if sel.Year == 0 {
		sel.Year = h.defaultYear
	}
	c := pipeline.NewChart(def, h.loader,
		pipeline.WithFrame(h.frame),
		pipeline.WithLogger(h.logger),
		pipeline.WithNames(h.names))
	return c.Update(r.Context(), sel)
}

func truncationWarning(w http.ResponseWriter, res pipeline.Result) string {
	if !res.Truncated {
		return ""
	}
	msg := fmt.Sprintf("country selection truncated to %d", transform.MaxCountries)
	w.Header().Set(WarningHeader, msg)
	return msg
}

// Chart serves /charts/{kind}.svg as SVG and /charts/{kind} as an HTML page.
// Failed renders still send the explicit empty scene, with a status that
// names the failure.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	asSVG := strings.HasSuffix(kind, ".svg")
	kind = strings.TrimSuffix(kind, ".svg")

	res, err := h.render(r, kind)
	if res.Scene == nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	warning := truncationWarning(w, res)
	status := StatusFor(err)

	if asSVG {
		var buf bytes.Buffer
		if werr := res.Scene.WriteSVG(&buf); werr != nil {
			h.serverError(w, r, werr)
			return
		}
		etag := `"` + dataset.Fingerprint(buf.Bytes())[:32] + `"`
		w.Header().Set("ETag", etag)
		if status == http.StatusOK && r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(status)
		w.Write(buf.Bytes())
		return
	}

	opts := viz.DefaultOptions()
	opts.Kind = kind
	opts.Charts = h.registry.Infos()
	opts.Selection = res.Selection
	opts.BasePath = "/charts"
	opts.Warning = warning
	if h.store != nil {
		opts.Years, _ = h.store.Years()
		opts.Regions, _ = h.store.Regions()
		opts.Countries, _ = h.store.Countries("")
	}
	page, perr := viz.GeneratePage(res.Scene, opts)
	if perr != nil {
		h.serverError(w, r, perr)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(page))
}

// Hover answers what the page shows with the pointer at ?x=&y= over the
// chart for the same selection.
func (h *Handler) Hover(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("x and y must be numbers"))
		return
	}

	res, err := h.render(r, chi.URLParam(r, "kind"))
	if res.Scene == nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	truncationWarning(w, res)

	m := interact.New(res.Scene)
	writeJSON(w, StatusFor(err), m.PointerMove(x, y))
}
