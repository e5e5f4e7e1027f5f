package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/storage"
)

// Years lists the observation years as a comma-joined string.
func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoStore)
		return
	}
	years, err := h.store.Years()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	writeJSON(w, http.StatusOK, map[string]string{"years": strings.Join(parts, ",")})
}

// Regions lists the parent locations as a comma-joined string.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoStore)
		return
	}
	regions, err := h.store.Regions()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"regions": strings.Join(regions, ",")})
}

// Countries lists locations, optionally within ?region=, as a comma-joined string.
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoStore)
		return
	}
	countries, err := h.store.Countries(r.URL.Query().Get("region"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"countries": strings.Join(countries, ",")})
}

// metricIndicators maps metric and age to WHO indicator codes.
var metricIndicators = map[string]map[string]string{
	"le":  {"birth": record.IndicatorLE, "60": record.IndicatorLE60},
	"hle": {"birth": record.IndicatorHALE, "60": record.IndicatorHALE60},
}

// lifeQuery parses the /life parameters.
func lifeQuery(r *http.Request) (metrics []string, indicators map[string][]string, q storage.LifeQuery, err error) {
	v := r.URL.Query()

	for _, s := range splitList(v.Get("years")) {
		y, perr := strconv.Atoi(s)
		if perr != nil {
			return nil, nil, q, fmt.Errorf("invalid year %q", s)
		}
		q.Years = append(q.Years, y)
	}

	switch m := strings.ToLower(v.Get("metric")); m {
	case "", "le":
		metrics = []string{"le"}
	case "hle":
		metrics = []string{"hle"}
	case "both":
		metrics = []string{"le", "hle"}
	default:
		return nil, nil, q, fmt.Errorf("invalid metric %q (valid: le, hle, both)", m)
	}

	var ages []string
	switch a := strings.ToLower(v.Get("age")); a {
	case "", "birth", "0":
		ages = []string{"birth"}
	case "60":
		ages = []string{"60"}
	case "both":
		ages = []string{"birth", "60"}
	default:
		return nil, nil, q, fmt.Errorf("invalid age %q (valid: birth, 60, both)", a)
	}

	sex, ok := record.ParseSex(v.Get("sex"))
	if !ok {
		return nil, nil, q, fmt.Errorf("invalid sex %q (valid: both, male, female)", v.Get("sex"))
	}
	q.Sex = sex
	q.Region = v.Get("continent")
	q.Country = v.Get("country")

	indicators = make(map[string][]string, len(metrics))
	for _, m := range metrics {
		for _, a := range ages {
			ind := metricIndicators[m][a]
			indicators[m] = append(indicators[m], ind)
			q.Indicators = append(q.Indicators, ind)
		}
	}
	return metrics, indicators, q, nil
}

// Life returns observations grouped by metric and year:
// {"le": {"2021": [...]}, "hle": {...}}.
func (h *Handler) Life(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoStore)
		return
	}
	metrics, indicators, q, err := lifeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	obs, err := h.store.Life(q)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	metricOf := make(map[string]string)
	for m, inds := range indicators {
		for _, ind := range inds {
			metricOf[ind] = m
		}
	}
	resp := make(map[string]map[string][]record.Observation, len(metrics))
	for _, m := range metrics {
		resp[m] = make(map[string][]record.Observation)
	}
	for _, o := range obs {
		m, ok := metricOf[o.Indicator]
		if !ok {
			continue
		}
		year := strconv.Itoa(o.Period)
		resp[m][year] = append(resp[m][year], o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Global returns the mean life expectancy at birth per year across all
// locations: {"global_avg_le": {"2000": 66.8}}.
func (h *Handler) Global(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoStore)
		return
	}
	sex, ok := record.ParseSex(r.URL.Query().Get("sex"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sex %q", r.URL.Query().Get("sex")))
		return
	}
	avgs, err := h.store.GlobalAverages(record.IndicatorLE, sex)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make(map[string]float64, len(avgs))
	for y, v := range avgs {
		out[strconv.Itoa(y)] = math.Round(v*100) / 100
	}
	writeJSON(w, http.StatusOK, map[string]map[string]float64{"global_avg_le": out})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

// splitList splits a comma-separated parameter, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
