// Package api serves the observation read endpoints and rendered charts
// over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vizwizards/lifeviz/internal/charts"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/record"
	"github.com/vizwizards/lifeviz/internal/storage"
)

// WarningHeader carries non-fatal notices such as a truncated selection.
const WarningHeader = "X-Lifeviz-Warning"

// Store is the observation query layer behind the read endpoints.
type Store interface {
	Years() ([]int, error)
	Regions() ([]string, error)
	Countries(region string) ([]string, error)
	Life(q storage.LifeQuery) ([]record.Observation, error)
	GlobalAverages(indicator string, sex record.Sex) (map[int]float64, error)
}

// Handler serves the API.
type Handler struct {
	store       Store
	registry    *charts.Registry
	loader      pipeline.Loader
	frame       pipeline.Frame
	names       *reconcile.Table
	logger      *slog.Logger
	defaultYear int
}

// Option configures a Handler.
type Option func(*Handler)

// WithFrame sets the chart frame.
func WithFrame(f pipeline.Frame) Option {
	return func(h *Handler) {
		h.frame = f
	}
}

// WithNames sets the reconciliation table charts use.
func WithNames(t *reconcile.Table) Option {
	return func(h *Handler) {
		h.names = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithDefaultYear sets the year used when a chart request names none.
func WithDefaultYear(y int) Option {
	return func(h *Handler) {
		h.defaultYear = y
	}
}

// NewHandler creates a Handler. store may be nil, in which case the read
// endpoints answer 503.
func NewHandler(store Store, registry *charts.Registry, loader pipeline.Loader, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		registry: registry,
		loader:   loader,
		frame:    pipeline.DefaultFrame,
		names:    reconcile.New(nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Get("/years", h.Years)
	r.Get("/regions", h.Regions)
	r.Get("/countries", h.Countries)
	r.Get("/life", h.Life)
	r.Get("/global", h.Global)

	r.Get("/charts", h.ListCharts)
	r.Get("/charts/{kind}", h.Chart)
	r.Get("/charts/{kind}/hover", h.Hover)
}

// NewRouter returns the full middleware stack around h.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders: []string{WarningHeader, "ETag"},
		MaxAge:         300,
	}))

	h.RegisterRoutes(r)
	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ErrNoStore is returned by read endpoints when no observation store is configured.
var ErrNoStore = errors.New("no observation store; run lifeviz import")

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encoding response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps a pipeline failure to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, pipeline.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrLoad):
		return http.StatusBadGateway
	case errors.Is(err, charts.ErrUnknownChart):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
