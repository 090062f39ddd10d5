package request

import (
	"fmt"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
)

// Request limits.
const (
	// MaxQuestionLength is the maximum question length in bytes.
	MaxQuestionLength = 4096
	MaxTopK           = 50
	MaxKeywords       = 8
)

// ModelKey is the reserved keyword selecting the generation backend.
const ModelKey = "model"

// Keyword is a raw key/value constraint as sent by the caller ("_country" = "_finland").
type Keyword struct {
	Key   string
	Value string
}

// Request is a validated retrieval request.
type Request struct {
	question string
	topK     int
	facets   facet.Set
	backend  backend.Backend
}

// New validates a request. All validation happens here, before any filtering
// or scoring. Errors wrap domain.ErrInvalidRequest.
func New(question string, topK int, facets facet.Set, b backend.Backend) (Request, error) {
	if question == "" {
		return Request{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}
	if len(question) > MaxQuestionLength {
		return Request{}, fmt.Errorf("%w: question too long (max %d bytes)", domain.ErrInvalidRequest, MaxQuestionLength)
	}
	if topK < 1 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidRequest, MaxTopK, topK)
	}
	if b != "" && !b.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown generation backend %q", domain.ErrInvalidRequest, b)
	}
	return Request{question: question, topK: topK, facets: facets, backend: b}, nil
}

// FromKeywords parses wire keywords and validates the request.
func FromKeywords(question string, topK int, keywords []Keyword) (Request, error) {
	facets, b, err := ParseKeywords(keywords)
	if err != nil {
		return Request{}, err
	}
	return New(question, topK, facets, b)
}

// ParseKeywords splits keywords into facet constraints and the backend selector.
// Facets not mentioned are unconstrained.
func ParseKeywords(keywords []Keyword) (facet.Set, backend.Backend, error) {
	if len(keywords) > MaxKeywords {
		return facet.Set{}, "", fmt.Errorf("%w: too many keywords (max %d)", domain.ErrInvalidRequest, MaxKeywords)
	}

	var (
		constraints []facet.Constraint
		b           backend.Backend
		modelSeen   bool
	)
	for _, kw := range keywords {
		if facet.Normalize(kw.Key) == ModelKey {
			if modelSeen {
				return facet.Set{}, "", fmt.Errorf("%w: keyword %q given more than once", domain.ErrInvalidRequest, kw.Key)
			}
			modelSeen = true
			parsed, err := backend.Parse(kw.Value)
			if err != nil {
				return facet.Set{}, "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
			}
			b = parsed
			continue
		}

		key, err := facet.ParseKey(kw.Key)
		if err != nil {
			return facet.Set{}, "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		c, err := facet.NewConstraint(key, kw.Value)
		if err != nil {
			return facet.Set{}, "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		constraints = append(constraints, c)
	}

	set, err := facet.NewSet(constraints...)
	if err != nil {
		return facet.Set{}, "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return set, b, nil
}

// Question returns the free-text question.
func (r *Request) Question() string { return r.question }

// TopK returns the maximum number of passages to select.
func (r *Request) TopK() int { return r.topK }

// Facets returns the facet constraints.
func (r *Request) Facets() facet.Set { return r.facets }

// Backend returns the requested generation backend, empty for the default.
func (r *Request) Backend() backend.Backend { return r.backend }
