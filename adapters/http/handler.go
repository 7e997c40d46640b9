// Package http provides the HTTP surface: a thin caller of the validation
// core. It exposes model storage and data validation; all validation
// semantics live below the app service.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/valigate/adapters/metrics"
	"github.com/artpar/valigate/app"
	"github.com/artpar/valigate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1MB request body cap

// Handler provides the HTTP endpoints.
type Handler struct {
	models  *app.ModelService
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewHandler creates a handler. collector may be nil.
func NewHandler(models *app.ModelService, logger zerolog.Logger, collector *metrics.Collector) *Handler {
	return &Handler{models: models, logger: logger, metrics: collector}
}

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestID)
	r.Use(h.logRequests)

	r.Route("/v1/models/{name}", func(r chi.Router) {
		r.Put("/", h.putModel)
		r.Get("/", h.getModel)
		r.Get("/versions", h.listVersions)
		r.Post("/validate", h.validateData)
	})
	r.Get("/healthz", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}
	return r
}

// requestID assigns every request an ID, echoed in X-Request-ID.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(h.logger.With().Str("request_id", id).Logger().WithContext(r.Context())))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")

		if h.metrics != nil {
			status := strconv.Itoa(rec.status)
			h.metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			h.metrics.RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(elapsed.Seconds())
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// putModel stores a serialized model under the next version.
//
//	PUT /v1/models/{name}
func (h *Handler) putModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	version, err := h.models.StoreSerialized(r.Context(), name, string(body))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "version": version})
}

// getModel returns the stored serialized model.
//
//	GET /v1/models/{name}?version=N
func (h *Handler) getModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version, ok := parseVersion(w, r)
	if !ok {
		return
	}
	serialized, got, err := h.models.GetSerialized(r.Context(), name, version)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Model-Version", strconv.Itoa(got))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, serialized)
}

// listVersions returns stored versions, descending.
//
//	GET /v1/models/{name}/versions
func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	versions, err := h.models.Versions(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "versions": versions})
}

// validateData validates the request body against a stored model. The
// response is the validation result shape; data problems are a 200 with
// isValid=false, not an HTTP error.
//
//	POST /v1/models/{name}/validate?version=N
func (h *Handler) validateData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version, ok := parseVersion(w, r)
	if !ok {
		return
	}

	var data map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "data document must be a JSON object")
		return
	}

	result, err := h.models.ValidateData(r.Context(), name, version, data)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseVersion(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return 0, true
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid version %q", raw))
		return 0, false
	}
	return version, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ports.ErrModelNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
