package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
	"github.com/kailas-cloud/vince/internal/metrics"
)

// Service composes facet filtering, scoring and ranking over the corpus.
type Service struct {
	corpus Corpus
	scorer Scorer
	logger *zap.Logger
}

// New creates a retrieval service.
func New(corpus Corpus, scorer Scorer, logger *zap.Logger) *Service {
	return &Service{corpus: corpus, scorer: scorer, logger: logger}
}

// Retrieve returns up to req.TopK() passages matching the request facets,
// best first. Passages carry document content for prompt building.
// An empty result is not an error.
func (s *Service) Retrieve(ctx context.Context, req *request.Request) ([]passage.Passage, error) {
	start := time.Now()

	candidates := Filter(s.corpus.All(), req.Facets())
	metrics.RetrievalCandidates.Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		metrics.RetrievalEmptyTotal.Inc()
		return []passage.Passage{}, nil
	}

	scores, err := s.scorer.Score(ctx, req.Question(), candidates)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("scorer %s returned %d scores for %d candidates",
			s.scorer.Name(), len(scores), len(candidates))
	}

	scored := make([]passage.Passage, len(candidates))
	for i, c := range candidates {
		scored[i] = passage.New(c.Doc, scores[i], c.Index)
	}
	ranked := Rank(scored, req.TopK())

	metrics.RetrievalResults.Observe(float64(len(ranked)))
	metrics.RetrievalDuration.WithLabelValues(s.scorer.Name()).Observe(time.Since(start).Seconds())

	s.logger.Debug("Retrieval completed",
		zap.String("scorer", s.scorer.Name()),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)),
		zap.Int("top_k", req.TopK()),
	)

	return ranked, nil
}

// Documents lists corpus documents matching set, in corpus order.
func (s *Service) Documents(set facet.Set) []document.Document {
	candidates := Filter(s.corpus.All(), set)
	docs := make([]document.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Doc
	}
	return docs
}
