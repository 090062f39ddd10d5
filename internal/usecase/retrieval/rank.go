package retrieval

import (
	"slices"

	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

// Rank orders passages by similarity, highest first, and keeps the first topK.
// Equal scores keep their input order. The input slice is not modified.
func Rank(scored []passage.Passage, topK int) []passage.Passage {
	if topK < 1 || len(scored) == 0 {
		return []passage.Passage{}
	}

	ranked := slices.Clone(scored)
	slices.SortStableFunc(ranked, func(a, b passage.Passage) int {
		switch {
		case a.Similarity() > b.Similarity():
			return -1
		case a.Similarity() < b.Similarity():
			return 1
		default:
			return 0
		}
	})

	return ranked[:min(topK, len(ranked))]
}
