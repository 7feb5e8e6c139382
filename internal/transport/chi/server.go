// Package chi is the HTTP boundary of the crisis portal.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/logger"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/transport/urlparams"
	healthuc "github.com/alonsovargas3/commonlight-crisis-portal/internal/usecase/health"
)

const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Filters    any    `json:"filters,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type extractFiltersRequest struct {
	Query   string               `json:"query"`
	Context *domext.QueryContext `json:"context,omitempty"`
}

// Server holds the HTTP handlers.
type Server struct {
	extraction    Extractor
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(extraction Extractor, search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		extraction: extraction,
		search:     search,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		backendErrorHandler,
		sentinelHandler(domain.ErrMissingCriteria, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidResourceID, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/extract-filters", s.ExtractFilters)
	r.Get("/resources/search", s.SearchResources)
	r.Get("/resources/{id}", s.GetResource)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ExtractFilters handles POST /extract-filters.
func (s *Server) ExtractFilters(w http.ResponseWriter, r *http.Request) {
	var req extractFiltersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.handleDomainError(w, r, domain.ErrInvalidQuery)
		return
	}

	var qctx domext.QueryContext
	if req.Context != nil {
		qctx = *req.Context
	}

	ctx := logger.With(r.Context(), zap.Int("query_len", len(query)))
	res := s.extraction.Extract(ctx, query, qctx)
	logger.Annotate(ctx,
		zap.String("provider", res.Metadata.Provider),
		zap.Float64("confidence", res.Confidence),
	)
	writeJSON(w, http.StatusOK, res)
}

// SearchResources handles GET /resources/search.
func (s *Server) SearchResources(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Decode(urlparams.Decode(r.URL.Query(), "keywords"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid search parameters")
		return
	}

	resp, err := s.search.Search(r.Context(), f)
	if err != nil {
		var locErr *domain.InvalidLocationError
		if errors.As(err, &locErr) {
			logger.FromContext(r.Context()).Error("Search filters rejected by transformer", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   locErr.Error(),
				Filters: filterSnapshot(f),
			})
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	logger.Annotate(r.Context(), zap.Int("results", len(resp.Items)), zap.Int("total", resp.Total))
	writeJSON(w, http.StatusOK, resp)
}

// GetResource handles GET /resources/{id}.
func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	detail, err := s.search.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logger.Annotate(r.Context(), zap.Bool("from_cache", detail.FromCache))
	writeJSON(w, http.StatusOK, detail)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMissingCriteria,
		domain.ErrInvalidResourceID,
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream timeout"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

// backendErrorHandler passes backend failures through with their status.
// No HTTP response from the backend becomes 502.
func backendErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var apiErr *domain.BackendAPIError
	if !errors.As(err, &apiErr) {
		return false
	}
	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusBadGateway
	}
	msg := "Backend request failed"
	if apiErr.IsNotFound() {
		msg = "Resource not found"
	}
	writeJSON(w, status, errorResponse{
		Error:      msg,
		Details:    apiErr.Message,
		StatusCode: status,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// filterSnapshot renders filters for an error body. Non-finite coordinates
// are not valid JSON numbers, so they are written as strings.
func filterSnapshot(f filter.Filters) any {
	if f.Location == nil || f.Location.Coordinates == nil {
		return f
	}
	c := *f.Location.Coordinates
	safe := f.Clone()
	safe.Location.Coordinates = nil

	data, err := json.Marshal(safe)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	loc, _ := out["location"].(map[string]any)
	if loc == nil {
		loc = map[string]any{}
		out["location"] = loc
	}
	loc["coordinates"] = map[string]string{
		"lat": strconv.FormatFloat(c.Lat, 'g', -1, 64),
		"lon": strconv.FormatFloat(c.Lon, 'g', -1, 64),
	}
	return out
}
