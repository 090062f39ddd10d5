package chi

import (
	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeDocumentNotFound       = "document_not_found"
	codeRateLimited            = "rate_limited"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

// QueryRequest is the body of POST /rag/query and POST /rag/retrieve.
// Field matching is case-insensitive, so {"Key": ..., "Value": ...} keywords decode too.
type QueryRequest struct {
	Question string           `json:"question" validate:"required"`
	TopK     int              `json:"top_k"`
	Keywords []KeywordRequest `json:"keywords" validate:"omitempty,dive"`
}

// KeywordRequest is one facet constraint or the "_model" backend selector.
type KeywordRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// QueryResponse is the answer with metadata-only sources.
type QueryResponse struct {
	Question       string           `json:"question"`
	Answer         string           `json:"answer"`
	Sources        []SourceResponse `json:"sources"`
	RetrievalCount int              `json:"retrieval_count"`
}

// RetrieveResponse lists ranked sources without a generated answer.
type RetrieveResponse struct {
	Question       string           `json:"question"`
	Sources        []SourceResponse `json:"sources"`
	RetrievalCount int              `json:"retrieval_count"`
}

// SourceResponse describes a cited passage. The body is never included.
type SourceResponse struct {
	File            string  `json:"file"`
	URL             string  `json:"url,omitempty"`
	Page            *int    `json:"page"`
	Section         *string `json:"section"`
	Similarity float64 `json:"similarity"`
	// OriginalIndices are 1-based positions in the full corpus (GET /api/v1/documents
	// order), not in the filtered candidate list, so they stay stable across filters.
	OriginalIndices []int `json:"original_indices"`
}

// DocumentResponse is the corpus metadata of a document.
type DocumentResponse struct {
	ID      string  `json:"id"`
	URL     string  `json:"url,omitempty"`
	Title   string  `json:"title"`
	Partner string  `json:"partner"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	Page    *int    `json:"page,omitempty"`
	Section *string `json:"section,omitempty"`
}

// DocumentListResponse wraps a filtered document listing.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int                `json:"total"`
}

// FacetsResponse feeds the filter dropdowns of the chat UI.
type FacetsResponse struct {
	Partner        []string `json:"partner"`
	Country        []string `json:"country"`
	City           []string `json:"city"`
	Backends       []string `json:"backends"`
	DefaultBackend string   `json:"default_backend"`
}

// HealthResponse is the aggregated health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func keywordsFromDTO(kws []KeywordRequest) []request.Keyword {
	out := make([]request.Keyword, len(kws))
	for i, kw := range kws {
		out[i] = request.Keyword{Key: kw.Key, Value: kw.Value}
	}
	return out
}

func sourceToDTO(s passage.Source) SourceResponse {
	indices := s.OriginalIndices
	if indices == nil {
		indices = []int{}
	}
	return SourceResponse{
		File:            s.File,
		URL:             s.URL,
		Page:            s.Page,
		Section:         s.Section,
		Similarity:      s.Similarity,
		OriginalIndices: indices,
	}
}

func sourcesToDTO(sources []passage.Source) []SourceResponse {
	out := make([]SourceResponse, len(sources))
	for i, s := range sources {
		out[i] = sourceToDTO(s)
	}
	return out
}

func documentToDTO(d *document.Document) DocumentResponse {
	facets := d.Facets()
	resp := DocumentResponse{
		ID:      d.ID(),
		URL:     d.URL(),
		Title:   d.Title(),
		Partner: facets.Partner,
		Country: facets.Country,
		City:    facets.City,
		Page:    d.Page(),
	}
	if s := d.Section(); s != "" {
		resp.Section = &s
	}
	return resp
}
