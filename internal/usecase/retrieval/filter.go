package retrieval

import (
	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
)

// Candidate is a document that passed the facet filter.
type Candidate struct {
	Doc document.Document
	// Index is the 1-based position of the document in the corpus.
	Index int
}

// Filter keeps the documents matching every constraint in set, in corpus order.
// Sentinel constraints match everything. An empty result is valid.
func Filter(docs []document.Document, set facet.Set) []Candidate {
	out := make([]Candidate, 0, len(docs))
	for i := range docs {
		if set.Matches(docs[i].Facets()) {
			out = append(out, Candidate{Doc: docs[i], Index: i + 1})
		}
	}
	return out
}
