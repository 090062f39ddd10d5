package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
	logpkg "github.com/kailas-cloud/vince/internal/logger"
	"github.com/kailas-cloud/vince/internal/repository/corpus"
	answeruc "github.com/kailas-cloud/vince/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/vince/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/vince/internal/usecase/retrieval"
)

// maxBodyBytes bounds request bodies; questions are at most a few KB.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the question answering API.
type Server struct {
	answers       *answeruc.Service
	retrieval     *retrievaluc.Service
	corpus        *corpus.Store
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers *answeruc.Service,
	retrieval *retrievaluc.Service,
	store *corpus.Store,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers:   answers,
		retrieval: retrieval,
		corpus:    store,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationErrorHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/rag/query", s.Query)
		r.Post("/rag/retrieve", s.Retrieve)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Get("/facets", s.ListFacets)
	})
}

// Query handles POST /api/v1/rag/query.
// Generation failures never surface as HTTP errors: the answer carries the fallback text.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp := s.answers.Answer(ctx, &req)

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, QueryResponse{
		Question:       resp.Question(),
		Answer:         resp.Text(),
		Sources:        sourcesToDTO(resp.Sources()),
		RetrievalCount: resp.RetrievalCount(),
	})
}

// Retrieve handles POST /api/v1/rag/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	passages, err := s.retrieval.Retrieve(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sources := make([]SourceResponse, len(passages))
	for i := range passages {
		sources[i] = sourceToDTO(passages[i].Source())
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, RetrieveResponse{
		Question:       req.Question(),
		Sources:        sources,
		RetrievalCount: len(sources),
	})
}

// ListDocuments handles GET /api/v1/documents?partner=&country=&city=.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	constraints := make([]facet.Constraint, 0, len(facet.Keys))
	for _, k := range facet.Keys {
		var value *string
		if err := runtime.BindQueryParameter("form", true, false, string(k), query, &value); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid query parameter "+string(k)+": "+err.Error())
			return
		}
		if value == nil {
			continue
		}
		c, err := facet.NewConstraint(k, *value)
		if err != nil {
			s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
			return
		}
		constraints = append(constraints, c)
	}

	set, err := facet.NewSet(constraints...)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}

	docs := s.retrieval.Documents(set)
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToDTO(&docs[i])
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Total: len(items)})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.corpus.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// ListFacets handles GET /api/v1/facets.
func (s *Server) ListFacets(w http.ResponseWriter, _ *http.Request) {
	catalog := s.corpus.Catalog()

	backends := s.answers.Backends()
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}

	writeJSON(w, http.StatusOK, FacetsResponse{
		Partner:        catalog[facet.Partner],
		Country:        catalog[facet.Country],
		City:           catalog[facet.City],
		Backends:       names,
		DefaultBackend: string(s.answers.DefaultBackend()),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeRequest parses and validates a query body. On failure the error
// response is already written.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (request.Request, bool) {
	var body QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return request.Request{}, false
	}

	if err := validateStruct(body); err != nil {
		s.handleDomainError(w, r, err)
		return request.Request{}, false
	}

	req, err := request.FromKeywords(body.Question, body.TopK, keywordsFromDTO(body.Keywords))
	if err != nil {
		s.handleDomainError(w, r, err)
		return request.Request{}, false
	}
	return req, true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if tokens, used := usage.EmbeddingTokens(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if prompt, completion, used := usage.GenerationTokens(); used {
		w.Header().Set("X-Prompt-Tokens", strconv.Itoa(prompt))
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(completion))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Validation messages are
// built from request input and returned as is; other errors are reduced to
// their sentinel text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationErrorHandler reports struct validation failures with per-field messages.
func validationErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    codeValidationFailed,
		Message: "Validation failed",
		Fields:  ve.Fields,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
