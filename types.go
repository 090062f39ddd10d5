package vince

import (
	"context"

	"github.com/kailas-cloud/vince/internal/domain"
)

// Errors returned by the client. Match with errors.Is.
var (
	// ErrInvalidRequest is returned for questions, top_k values or filters that fail validation.
	ErrInvalidRequest = domain.ErrInvalidRequest
	// ErrDocumentNotFound is returned by Document for unknown ids.
	ErrDocumentNotFound = domain.ErrDocumentNotFound
)

// Backend names accepted by Query.Backend and WithDefaultBackend.
const (
	BackendLocal  = "local"
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// Filter restricts retrieval by facet. Empty fields and "any" impose no restriction.
type Filter struct {
	Partner string
	Country string
	City    string
}

// Query is a question with its retrieval settings.
type Query struct {
	Question string
	// TopK is the number of passages to retrieve, 1 to 50.
	TopK   int
	Filter Filter
	// Backend overrides the default generation backend.
	Backend string
}

// Answer is a generated answer with the passages it was built from.
type Answer struct {
	Question       string
	Text           string
	Sources        []Source
	RetrievalCount int
}

// Source is the metadata of a retrieved passage. It never includes the body.
type Source struct {
	File            string
	URL             string
	Page            *int
	Section         *string
	Similarity float64
	// OriginalIndices are 1-based positions in the full corpus, independent of the filter.
	OriginalIndices []int
}

// DocumentInfo is the metadata of a corpus document.
type DocumentInfo struct {
	ID      string
	URL     string
	Title   string
	Partner string
	Country string
	City    string
}

// Facets lists the distinct facet values of the corpus and the configured backends.
type Facets struct {
	Partners       []string
	Countries      []string
	Cities         []string
	Backends       []string
	DefaultBackend string
}

// Generation is the output of a Generator.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces answer text for a prompt. Plug in any language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// EmbeddingResult is the output of an Embedder.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Setting one switches retrieval to embedding similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
