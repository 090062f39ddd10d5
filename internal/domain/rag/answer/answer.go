package answer

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

// Fixed answers returned without (or instead of) generated text.
const (
	NoResultsText = "I couldn't find any relevant information based on your current filters. " +
		"Please try adjusting your search or selecting 'Any' for partner/country."
	FallbackText = "Error communicating with the AI service. Please check your API key."
	EmptyText    = "I'm sorry, I couldn't generate an answer."
)

// Response is the final answer for a request.
// RetrievalCount always equals len(Sources); sources are sorted by similarity, highest first.
type Response struct {
	question string
	text     string
	sources  []passage.Source
}

// New assembles a response from ranked passages. Passage bodies are dropped.
func New(question, text string, passages []passage.Passage) Response {
	sources := make([]passage.Source, len(passages))
	for i := range passages {
		sources[i] = passages[i].Source()
	}
	// Ties keep rank order so [SOURCE_n] labels still line up.
	slices.SortStableFunc(sources, func(a, b passage.Source) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if text == "" {
		text = EmptyText
	}
	return Response{question: question, text: text, sources: sources}
}

// NoResults is the canned response for an empty retrieval.
func NoResults(question string) Response {
	return Response{question: question, text: NoResultsText, sources: []passage.Source{}}
}

// Fallback is the canned response for a failed synthesis.
func Fallback(question string) Response {
	return Response{question: question, text: FallbackText, sources: []passage.Source{}}
}

// Question echoes the request question.
func (r *Response) Question() string { return r.question }

// Text returns the answer text.
func (r *Response) Text() string { return r.text }

// Sources returns metadata-only sources.
func (r *Response) Sources() []passage.Source { return r.sources }

// RetrievalCount returns the number of passages in Sources.
func (r *Response) RetrievalCount() int { return len(r.sources) }
