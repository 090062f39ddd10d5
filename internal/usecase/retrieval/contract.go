package retrieval

import (
	"context"

	"github.com/kailas-cloud/vince/internal/domain/document"
)

// Scorer assigns each candidate a relevance score for query.
// The returned slice has one score per candidate, in candidate order, each in [0, 0.95].
type Scorer interface {
	Score(ctx context.Context, query string, candidates []Candidate) ([]float64, error)
	Name() string
}

// Corpus is the read-only document table.
type Corpus interface {
	All() []document.Document
}
