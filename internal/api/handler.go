package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/assetboard/assetboard/internal/aggregate"
	"github.com/assetboard/assetboard/internal/alerts"
	"github.com/assetboard/assetboard/internal/config"
	"github.com/assetboard/assetboard/internal/filter"
	"github.com/assetboard/assetboard/internal/metrics"
	"github.com/assetboard/assetboard/internal/source"
	"github.com/assetboard/assetboard/internal/store"
)

// Options wires optional collaborators into the handler.
type Options struct {
	// ListLimit caps the list endpoint. Defaults to config.DefaultListLimit.
	ListLimit int

	// Metrics instruments each route. May be nil.
	Metrics *metrics.Metrics

	// Middleware wraps every /api/v1 route, e.g. auth.APIKey.
	Middleware []mux.MiddlewareFunc

	// Upload serves POST /api/v1/snapshot. The route is absent when nil.
	Upload http.Handler
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store     *store.Store
	alerts    *alerts.Engine
	listLimit int
	router    *mux.Router
}

// New creates a Handler wired to st and al and registers all routes.
func New(st *store.Store, al *alerts.Engine, opts Options) *Handler {
	h := &Handler{
		store:     st,
		alerts:    al,
		listLimit: opts.ListLimit,
		router:    mux.NewRouter(),
	}
	if h.listLimit <= 0 {
		h.listLimit = config.DefaultListLimit
	}

	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	v1 := h.router.PathPrefix("/api/v1").Subrouter()
	for _, mw := range opts.Middleware {
		v1.Use(mw)
	}

	route := func(method, path, name string, fn http.HandlerFunc) {
		v1.Handle(path, opts.Metrics.Monitor(name, fn)).Methods(method).Name(name)
	}
	route(http.MethodGet, "/status", "status", h.status)
	route(http.MethodGet, "/assets", "assets", h.listAssets)
	route(http.MethodGet, "/assets/{id}", "asset", h.getAsset)
	route(http.MethodGet, "/stats", "stats", h.stats)
	route(http.MethodGet, "/filters", "filters", h.filters)
	route(http.MethodGet, "/alerts", "alerts", h.listAlerts)
	route(http.MethodPost, "/refresh", "refresh", h.refresh)
	if opts.Upload != nil {
		route(http.MethodPost, "/snapshot", "snapshot", opts.Upload.ServeHTTP)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// status returns GET /api/v1/status: snapshot identity and last refresh outcome.
func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.buildStatus())
}

// listAssets returns GET /api/v1/assets: the filtered list, capped at the
// list limit.
func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	visible := filter.Apply(snap.Assets, q.Get("search"), filter.FromQuery(q))

	resp := AssetsResponse{Assets: visible, Total: len(visible), Limit: h.listLimit}
	if len(visible) > h.listLimit {
		resp.Assets = visible[:h.listLimit]
		resp.Truncated = true
	}
	jsonResp(w, http.StatusOK, resp)
}

// getAsset returns GET /api/v1/assets/{id}: one asset with diagnostics.
func (h *Handler) getAsset(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	a, found := snap.Asset(mux.Vars(r)["id"])
	if !found {
		jsonErr(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResp(w, http.StatusOK, AssetResponse{Asset: a, Diagnostics: computeDiagnostics(a)})
}

// stats returns GET /api/v1/stats: summary and chart series over the
// filtered set.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	jsonResp(w, http.StatusOK, BuildStats(snap, q.Get("search"), filter.FromQuery(q)))
}

// filters returns GET /api/v1/filters: selectable values from the full set.
func (h *Handler) filters(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	opts := filter.Options(snap.Assets)
	resp := make(FiltersResponse, len(opts))
	for c, vals := range opts {
		resp[string(c)] = vals
	}
	jsonResp(w, http.StatusOK, resp)
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// refresh handles POST /api/v1/refresh: fetch now and report the new status.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Refresh(r.Context()); err != nil {
		switch {
		case errors.Is(err, source.ErrNotConfigured):
			jsonErr(w, http.StatusServiceUnavailable, "inventory source is not configured")
		default:
			slog.Warn("api: refresh failed", "err", err)
			jsonErr(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	jsonResp(w, http.StatusOK, h.buildStatus())
}

// --- helpers ----------------------------------------------------------------

// current loads the snapshot or answers 503.
func (h *Handler) current(w http.ResponseWriter) (*store.Snapshot, bool) {
	snap, err := h.store.Current()
	if err != nil {
		jsonErr(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return snap, true
}

func (h *Handler) buildStatus() StatusResponse {
	st := h.store.Status()
	resp := StatusResponse{
		SnapshotID:      st.SnapshotID,
		Origin:          st.Origin,
		Records:         st.Records,
		LastError:       st.LastError,
		Refreshing:      st.Refreshing,
		RefreshInterval: st.Interval.String(),
		Cert:            st.Cert,
	}
	if !st.FetchedAt.IsZero() {
		t := st.FetchedAt.UTC()
		resp.FetchedAt = &t
	}
	if !st.LastAttempt.IsZero() {
		t := st.LastAttempt.UTC()
		resp.LastAttempt = &t
	}
	if h.alerts != nil {
		resp.AlertCount = h.alerts.Firing()
	}
	return resp
}

// BuildStats filters snap and aggregates the result. The WebSocket hub uses
// it to build its snapshot events.
func BuildStats(snap *store.Snapshot, search string, state *filter.State) StatsResponse {
	visible := filter.Apply(snap.Assets, search, state)
	return StatsResponse{
		SnapshotID:        snap.ID.String(),
		FetchedAt:         snap.FetchedAt.UTC(),
		Records:           len(snap.Assets),
		Summary:           aggregate.Summarize(visible),
		OSDistribution:    aggregate.OSDistribution(visible),
		GradeDistribution: aggregate.GradeDistribution(visible),
		DiskHistogram:     aggregate.DiskHistogram(visible),
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
