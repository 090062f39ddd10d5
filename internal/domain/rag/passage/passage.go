package passage

import (
	"math"

	"github.com/kailas-cloud/vince/internal/domain/document"
)

// MaxSimilarity caps every similarity so no passage claims near-certainty.
const MaxSimilarity = 0.95

// Passage is a scored document selected for a single request.
type Passage struct {
	doc             document.Document
	similarity      float64
	originalIndices []int
}

// New creates a passage. similarity is clamped into [0, MaxSimilarity];
// originalIndices are the 1-based corpus positions the passage comes from.
func New(doc document.Document, similarity float64, originalIndices ...int) Passage {
	return Passage{
		doc:             doc,
		similarity:      Clamp(similarity),
		originalIndices: append([]int(nil), originalIndices...),
	}
}

// Clamp bounds a raw score into [0, MaxSimilarity]. NaN maps to 0.
func Clamp(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > MaxSimilarity {
		return MaxSimilarity
	}
	return s
}

// Document returns the underlying document.
func (p *Passage) Document() document.Document { return p.doc }

// Similarity returns the relevance score.
func (p *Passage) Similarity() float64 { return p.similarity }

// Content returns the passage body used to build the generation prompt.
func (p *Passage) Content() string { return p.doc.Content() }

// OriginalIndices returns the 1-based corpus positions.
func (p *Passage) OriginalIndices() []int { return append([]int(nil), p.originalIndices...) }

// Source returns the user-visible metadata of the passage. The body is never included.
func (p *Passage) Source() Source {
	var section *string
	if s := p.doc.Section(); s != "" {
		section = &s
	}
	return Source{
		File:            p.doc.Title(),
		URL:             p.doc.URL(),
		Page:            p.doc.Page(),
		Section:         section,
		Similarity:      p.similarity,
		OriginalIndices: p.OriginalIndices(),
	}
}

// Source is the metadata-only view of a passage.
type Source struct {
	File            string
	URL             string
	Page            *int
	Section         *string
	Similarity      float64
	OriginalIndices []int
}
