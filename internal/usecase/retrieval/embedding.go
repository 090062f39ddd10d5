package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

// DefaultEmbeddingConcurrency bounds parallel document embedding calls.
const DefaultEmbeddingConcurrency = 4

// EmbeddingScorer scores documents by cosine similarity between the query
// embedding and each document embedding, clamped into [0, 0.95].
// Document embeddings are expected to go through a cache.
type EmbeddingScorer struct {
	query       domain.Embedder
	docs        domain.Embedder
	concurrency int
}

// NewEmbeddingScorer creates an embedding scorer. query and docs may be the same
// embedder, or differ by instruction prefix.
func NewEmbeddingScorer(query, docs domain.Embedder, concurrency int) *EmbeddingScorer {
	if concurrency < 1 {
		concurrency = DefaultEmbeddingConcurrency
	}
	return &EmbeddingScorer{query: query, docs: docs, concurrency: concurrency}
}

// Name returns the scorer identifier used in metrics and logs.
func (s *EmbeddingScorer) Name() string { return "embedding" }

// Score implements Scorer.
func (s *EmbeddingScorer) Score(ctx context.Context, query string, candidates []Candidate) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	q, err := s.query.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores := make([]float64, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range candidates {
		g.Go(func() error {
			d, err := s.docs.Embed(gctx, documentText(&candidates[i]))
			if err != nil {
				return fmt.Errorf("embed document %s: %w", candidates[i].Doc.ID(), err)
			}
			sim, err := domain.Cosine(q.Embedding, d.Embedding)
			if err != nil {
				return fmt.Errorf("score document %s: %w", candidates[i].Doc.ID(), err)
			}
			scores[i] = passage.Clamp(sim)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per document
	}
	return scores, nil
}

func documentText(c *Candidate) string {
	return c.Doc.Title() + "\n\n" + c.Doc.Content()
}
