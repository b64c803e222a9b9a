package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/qapulse/qapulse/internal/config"
	"github.com/qapulse/qapulse/internal/engine"
	"github.com/qapulse/qapulse/internal/models"
)

const maxBodyBytes = 4 << 20

// Backend is the analytics surface served over HTTP.
type Backend interface {
	Ask(ctx context.Context, question string) (models.Answer, error)
	Run(ctx context.Context, params models.QueryParams) (models.Answer, error)
	ListSuggestions() []models.Suggestion
	AnalysisTypes() []models.TemplateInfo
	AnalysisType(t models.AnalysisType) (models.TemplateInfo, error)
	ListProjects(ctx context.Context) ([]string, error)
	FailureHistory(ctx context.Context, testName string, limit int) (models.FailureHistory, error)
	IngestRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error)
	Ping(ctx context.Context) error
	LatencyP95() time.Duration
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type handler struct {
	backend Backend
	logger  *slog.Logger
}

// NewRouter builds the HTTP API with request id, logging, recovery, CORS and rate limiting.
func NewRouter(cfg config.ServerConfig, backend Backend, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{backend: backend, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
		}
		r.Route("/analytics", func(r chi.Router) {
			r.Post("/query", h.query)
			r.Post("/run", h.run)
			r.Get("/suggestions", h.suggestions)
			r.Get("/types", h.types)
			r.Get("/types/{type}", h.analysisType)
			r.Get("/test/{name}/failures", h.failures)
		})
		r.Get("/projects", h.projects)
		r.Post("/results", h.ingest)
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.backend.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"queryLatencyP95Ms": h.backend.LatencyP95().Milliseconds(),
	})
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	answer, err := h.backend.Ask(r.Context(), body.Query)
	if err != nil {
		h.writeError(w, r, err, "query_failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *handler) run(w http.ResponseWriter, r *http.Request) {
	var params models.QueryParams
	if !h.decode(w, r, &params) {
		return
	}
	answer, err := h.backend.Run(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err, "query_failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": h.backend.ListSuggestions()})
}

func (h *handler) types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": h.backend.AnalysisTypes()})
}

func (h *handler) analysisType(w http.ResponseWriter, r *http.Request) {
	info, err := h.backend.AnalysisType(models.AnalysisType(chi.URLParam(r, "type")))
	if errors.Is(err, engine.ErrUnknownAnalysisType) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown_analysis_type", Message: err.Error()})
		return
	}
	if err != nil {
		h.writeError(w, r, err, "query_failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handler) projects(w http.ResponseWriter, r *http.Request) {
	keys, err := h.backend.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, r, err, "query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": keys})
}

func (h *handler) failures(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_params", Message: "test name is not a valid path segment"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > models.MaxLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_params", Message: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}
	history, err := h.backend.FailureHistory(r.Context(), name, limit)
	if err != nil {
		h.writeError(w, r, err, "query_failed")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// pathParam returns a decoded URL parameter. chi matches on RawPath when the
// request carries one, in which case parameters arrive still escaped.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func (h *handler) ingest(w http.ResponseWriter, r *http.Request) {
	var payload models.RunPayload
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.backend.IngestRun(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err, "ingest_failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status and error code.
// Unrecognised errors become 500 with fallback as the code.
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest, "empty_query"
	case errors.Is(err, models.ErrInvalidParams), errors.Is(err, engine.ErrUnknownAnalysisType):
		return http.StatusBadRequest, "invalid_params"
	case errors.Is(err, models.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "query_cancelled"
	default:
		return http.StatusInternalServerError, fallback
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, code := statusFor(err, fallback)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.Any("error", err),
		)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
