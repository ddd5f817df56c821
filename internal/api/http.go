package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/miradorstack/mirador-forecast/internal/engine"
	"github.com/miradorstack/mirador-forecast/internal/models"
)

const maxRequestBytes = 1 << 20

// Forecaster is the domain-level service consumed by the HTTP surface.
type Forecaster interface {
	RunFit(ctx context.Context, req models.FitRequest) (models.RetentionFit, error)
	RunForecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error)
	RunLifetime(ctx context.Context, req models.LifetimeRequest) (models.LifetimeResult, error)
}

// HTTPHandler serves the JSON API.
type HTTPHandler struct {
	svc     Forecaster
	logger  *slog.Logger
	router  chi.Router
	started time.Time
}

// NewHTTPHandler builds the chi router for the JSON API.
func NewHTTPHandler(svc Forecaster, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPHandler{svc: svc, logger: logger, started: time.Now()}
	h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPHandler) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/v1", func(r chi.Router) {
			r.Post("/retention/fit", h.handleFit)
			r.Post("/forecast", h.handleForecast)
			r.Post("/lifetime", h.handleLifetime)
		})
	})

	h.router = r
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Seconds(),
	})
}

func (h *HTTPHandler) handleFit(w http.ResponseWriter, r *http.Request) {
	var req models.FitRequest
	if !h.decode(w, r, &req) {
		return
	}
	fit, err := h.svc.RunFit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fit":     fit,
		"formula": fit.Formula(),
	})
}

func (h *HTTPHandler) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req models.ForecastRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.RunForecast(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleLifetime(w http.ResponseWriter, r *http.Request) {
	var req models.LifetimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.RunLifetime(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// HTTPStatus maps engine errors onto response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
