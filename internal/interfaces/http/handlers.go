package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/plateau"
)

// ReloadFunc rebuilds a session from the configured dataset source.
type ReloadFunc func(ctx context.Context) (*plateau.Session, error)

// Handlers serves the analysis endpoints over the active session.
type Handlers struct {
	holder    *plateau.Holder
	reload    ReloadFunc
	metrics   *MetricsRegistry
	startTime time.Time
}

// NewHandlers creates the handler set. reload may be nil for read-only
// deployments; the /reload endpoint then reports it as unsupported.
func NewHandlers(holder *plateau.Holder, reload ReloadFunc, metrics *MetricsRegistry) *Handlers {
	return &Handlers{
		holder:    holder,
		reload:    reload,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	if requestID == "" {
		requestID = "unknown"
	}
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// observe records one query in the metrics registry.
func (h *Handlers) observe(endpoint, result string, start time.Time) {
	h.metrics.QueryDuration.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
	h.metrics.QueriesTotal.WithLabelValues(endpoint, result).Inc()
}

// session returns the active session or writes a 503 when no dataset is
// loaded yet.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *plateau.Session {
	sess := h.holder.Current()
	if sess == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "no_dataset", "no sweep dataset is loaded")
	}
	return sess
}

func datasetInfo(sess *plateau.Session) DatasetInfo {
	return DatasetInfo{
		ID:         sess.DatasetID,
		Source:     sess.Source,
		LoadedAt:   sess.LoadedAt,
		Records:    len(sess.Records),
		Strategies: len(sess.Class.Keys),
		Skipped:    sess.Class.Skipped,
	}
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		UptimeSecs: time.Since(h.startTime).Seconds(),
	}
	if sess := h.holder.Current(); sess != nil {
		info := datasetInfo(sess)
		resp.Dataset = &info
	} else {
		resp.Status = "no_dataset"
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Strategies handles GET /strategies.
func (h *Handlers) Strategies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	resp := StrategiesResponse{
		Dataset: sess.DatasetID,
		Skipped: sess.Class.Skipped,
	}
	for _, key := range sess.Class.Keys {
		strat := sess.Class.Strategies[key]
		resp.Strategies = append(resp.Strategies, StrategySummary{
			Key:        strat.Key,
			Label:      strat.Label,
			EntryNames: strat.EntryNames,
			ExitNames:  strat.ExitNames,
			Members:    len(strat.Members),
		})
	}

	h.observe("strategies", "ok", start)
	h.writeJSON(w, http.StatusOK, resp)
}

// Variables handles POST /strategies/{key}/variables.
func (h *Handlers) Variables(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req VariablesRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.observe("variables", "bad_request", start)
			h.writeError(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
			return
		}
	}

	key := mux.Vars(r)["key"]
	vs := sess.Index.VariableParams(key, req.Fixed)

	result := "ok"
	if vs.InsufficientAxes {
		result = "insufficient_axes"
	}
	h.observe("variables", result, start)
	h.writeJSON(w, http.StatusOK, vs)
}

// Matrix handles POST /matrix.
func (h *Handlers) Matrix(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req plateau.MatrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.observe("matrix", "bad_request", start)
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.Strategy == "" || req.XAxis == "" || req.YAxis == "" || req.Metric == "" {
		h.observe("matrix", "bad_request", start)
		h.writeError(w, r, http.StatusBadRequest, "missing_fields", "strategy, x_axis, y_axis and metric are required")
		return
	}

	matrix := sess.Index.BuildMatrix(req)
	resp := MatrixResponse{
		Matrix: matrix,
		Scale:  plateau.ScaleFor(req.Metric, matrix),
	}

	result := "ok"
	if matrix.ValidCells == 0 {
		result = "empty"
	}
	h.observe("matrix", result, start)
	h.writeJSON(w, http.StatusOK, resp)
}

// Colorscale handles GET /colorscale?metric=...&min=...
func (h *Handlers) Colorscale(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		h.observe("colorscale", "bad_request", start)
		h.writeError(w, r, http.StatusBadRequest, "missing_metric", "metric query parameter is required")
		return
	}

	var values []float64
	if minStr := r.URL.Query().Get("min"); minStr != "" {
		v, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			h.observe("colorscale", "bad_request", start)
			h.writeError(w, r, http.StatusBadRequest, "invalid_min", "min must be numeric")
			return
		}
		values = []float64{v}
	}

	h.observe("colorscale", "ok", start)
	h.writeJSON(w, http.StatusOK, plateau.ScaleForValues(metric, values))
}

// Reload handles POST /reload.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.reload == nil {
		h.writeError(w, r, http.StatusNotImplemented, "reload_unsupported", "this deployment has no reloadable dataset source")
		return
	}

	sess, err := h.reload(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("dataset reload failed")
		h.observe("reload", "error", start)
		h.writeError(w, r, http.StatusBadGateway, "reload_failed", err.Error())
		return
	}

	prev := h.holder.Swap(sess)
	h.metrics.DatasetReloads.Inc()
	h.metrics.DatasetRecords.Set(float64(len(sess.Records)))
	if prev != nil {
		log.Info().Str("previous", prev.DatasetID).Str("current", sess.DatasetID).Msg("dataset swapped")
	}

	h.observe("reload", "ok", start)
	h.writeJSON(w, http.StatusOK, ReloadResponse{Dataset: datasetInfo(sess)})
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}
