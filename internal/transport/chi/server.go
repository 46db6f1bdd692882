package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmodel/internal/domain"
	"github.com/kailas-cloud/esmodel/internal/domain/schema"
	"github.com/kailas-cloud/esmodel/internal/engine"
	logpkg "github.com/kailas-cloud/esmodel/internal/logger"
	"github.com/kailas-cloud/esmodel/internal/metrics"
	healthuc "github.com/kailas-cloud/esmodel/internal/usecase/health"
	modeluc "github.com/kailas-cloud/esmodel/internal/usecase/model"
)

const maxBodyBytes = 32 << 20

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeInvalidSchema    = "invalid_schema"
	CodeIndexNotFound    = "index_not_found"
	CodeDocumentNotFound = "document_not_found"
	CodeEngineError      = "engine_error"
	CodeBulkRejected     = "bulk_rejected"
	CodeUnauthorized     = "unauthorized"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves model operations over HTTP.
type Server struct {
	models        *modeluc.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(models *modeluc.Registry, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{models: models, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		bulkHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrSchema, http.StatusBadRequest, CodeInvalidSchema),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		engineStatusHandler,
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/indexes/{index}", func(r chi.Router) {
		r.Put("/", s.CreateMapping)
		r.Head("/", s.IndexExists)
		r.Delete("/", s.DeleteIndex)

		r.Post("/documents", s.CreateDocument)
		r.Put("/documents/{id}", s.PutDocument)
		r.Patch("/documents/{id}", s.UpdateDocument)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)

		r.Post("/bulk", s.LoadBulk)
		r.Post("/search", s.QuerySearch)
		r.Post("/search/{mode}", s.ModeSearch)
	})
}

// CreateMappingRequest is the body of PUT /indexes/{index}.
type CreateMappingRequest struct {
	Properties schema.Properties `json:"properties"`
	Settings   map[string]any    `json:"settings"`
}

// CreateMapping handles PUT /indexes/{index}.
func (s *Server) CreateMapping(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	var req CreateMappingRequest
	if r.ContentLength != 0 {
		if !decode(w, r, &req) {
			return
		}
	}
	index := svc.Index()
	err := svc.CreateMapping(r.Context(), modeluc.MappingRequest{
		Properties: req.Properties,
		Settings:   req.Settings,
		Index:      index,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"index": index, "acknowledged": true})
}

// IndexExists handles HEAD /indexes/{index}.
func (s *Server) IndexExists(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	exists, err := svc.IndexExists(r.Context(), "")
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteIndex handles DELETE /indexes/{index}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	if err := svc.DeleteIndex(r.Context(), ""); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DocumentResponse is returned by document writes and reads.
type DocumentResponse struct {
	Index  string         `json:"index"`
	ID     string         `json:"id"`
	Source map[string]any `json:"source,omitempty"`
}

// CreateDocument handles POST /indexes/{index}/documents with a generated ID.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	s.indexDocument(w, r, "")
}

// PutDocument handles PUT /indexes/{index}/documents/{id}.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	s.indexDocument(w, r, chi.URLParam(r, "id"))
}

func (s *Server) indexDocument(w http.ResponseWriter, r *http.Request, id string) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	var data map[string]any
	if !decode(w, r, &data) {
		return
	}
	id, err := svc.IndexDocument(r.Context(), id, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/indexes/%s/documents/%s", svc.Index(), id))
	writeJSON(w, http.StatusCreated, DocumentResponse{Index: svc.Index(), ID: id})
}

// UpdateDocument handles PATCH /indexes/{index}/documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	var data map[string]any
	if !decode(w, r, &data) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := svc.UpdateDocument(r.Context(), id, data); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Index: svc.Index(), ID: id})
}

// GetDocument handles GET /indexes/{index}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	src, err := svc.GetDocument(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Index: svc.Index(), ID: id, Source: src})
}

// DeleteDocument handles DELETE /indexes/{index}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	if _, err := svc.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkResponse reports a bulk load.
type BulkResponse struct {
	Index    string               `json:"index"`
	Total    int                  `json:"total"`
	Failed   int                  `json:"failed"`
	Failures []domain.BulkFailure `json:"failures,omitempty"`
}

// LoadBulk handles POST /indexes/{index}/bulk. The body is a JSON array of
// documents; an "id" key becomes the document ID.
func (s *Server) LoadBulk(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	var docs []map[string]any
	if !decode(w, r, &docs) {
		return
	}
	report, err := svc.LoadBulk(r.Context(), docs, "")
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(report.Failures) > 0 {
		logpkg.FromContext(r.Context()).Warn("bulk items rejected",
			zap.String("index", report.Index),
			zap.Int("rejected", len(report.Failures)),
			zap.Int("total", report.Total),
		)
	}
	writeJSON(w, http.StatusOK, BulkResponse{
		Index:    report.Index,
		Total:    report.Total,
		Failed:   len(report.Failures),
		Failures: report.Failures,
	})
}

// SearchResponse lists search hits.
type SearchResponse struct {
	Hits  []engine.Hit `json:"hits"`
	Total int          `json:"total"`
}

// QuerySearch handles POST /indexes/{index}/search with a raw query body.
func (s *Server) QuerySearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, modeRaw)
}

// ModeSearch handles POST /indexes/{index}/search/{mode}.
func (s *Server) ModeSearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, chi.URLParam(r, "mode"))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, mode string) {
	svc, ok := s.model(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if !decode(w, r, &raw) {
		return
	}
	f, err := fragmentFor(mode, raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	hits, err := svc.Search(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Hits: hits, Total: len(hits)})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. Only an unreachable engine fails the check.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	present := make(map[string]bool)
	for k, v := range report.Checks {
		checks[k] = string(v)
		if name, ok := strings.CutPrefix(k, "index:"); ok {
			present[name] = v == healthuc.CheckOK
		}
	}
	metrics.RecordHealth(report.Status != healthuc.Unhealthy, present)

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) model(w http.ResponseWriter, r *http.Request) (*modeluc.Service, bool) {
	svc, err := s.models.For(chi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return nil, false
	}
	return svc, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// bulkHandler reports strict bulk rejections with their per-item failures.
func bulkHandler(w http.ResponseWriter, err error) bool {
	var be *domain.BulkError
	if !errors.As(err, &be) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"code":     CodeBulkRejected,
		"message":  be.Error(),
		"failures": be.Failures,
	})
	return true
}

// engineStatusHandler forwards the engine status; failures without one become 502.
func engineStatusHandler(w http.ResponseWriter, err error) bool {
	var ee *domain.EngineError
	if !errors.As(err, &ee) {
		return false
	}
	status := ee.Status
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}
	writeError(w, status, CodeEngineError, ee.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
