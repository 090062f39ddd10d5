package retrieval

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

// Lexical scoring weights.
const (
	// MinTokenLength drops short query terms ("is", "the", "for").
	MinTokenLength = 4
	titleWeight    = 2
	bodyWeight     = 1
)

// DefaultMaxJitter is the upper bound of the tie-breaking perturbation.
const DefaultMaxJitter = 0.3

// JitterMode selects how the tie-breaking perturbation is drawn.
type JitterMode string

// Jitter modes.
const (
	// JitterStable derives jitter from a hash of query and document id:
	// identical requests get identical scores.
	JitterStable JitterMode = "stable"
	JitterRandom JitterMode = "random"
)

// IsValid checks if the mode is one of the supported values.
func (m JitterMode) IsValid() bool {
	return m == JitterStable || m == JitterRandom
}

// LexicalScorer scores documents by query term overlap with title and body.
// score = min(0.95, matches/(tokens+1) + jitter), title hits count double.
type LexicalScorer struct {
	maxJitter float64
	mode      JitterMode
}

// NewLexicalScorer creates a lexical scorer. maxJitter is clamped into
// [0, DefaultMaxJitter]; an unknown mode falls back to JitterStable.
func NewLexicalScorer(maxJitter float64, mode JitterMode) *LexicalScorer {
	maxJitter = max(0, min(maxJitter, DefaultMaxJitter))
	if !mode.IsValid() {
		mode = JitterStable
	}
	return &LexicalScorer{maxJitter: maxJitter, mode: mode}
}

// Name returns the scorer identifier used in metrics and logs.
func (s *LexicalScorer) Name() string { return "lexical" }

// Score implements Scorer. It never fails unless ctx is done.
func (s *LexicalScorer) Score(ctx context.Context, query string, candidates []Candidate) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lexical score: %w", err)
	}

	tokens := Tokenize(query)
	scores := make([]float64, len(candidates))
	for i := range candidates {
		doc := &candidates[i].Doc
		raw := matchCount(tokens, strings.ToLower(doc.Title()), strings.ToLower(doc.Content()))
		scores[i] = passage.Clamp(float64(raw)/float64(len(tokens)+1) + s.jitter(query, doc.ID()))
	}
	return scores, nil
}

// Tokenize lower-cases query, splits it on whitespace and drops
// tokens shorter than MinTokenLength.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func matchCount(tokens []string, title, body string) int {
	n := 0
	for _, t := range tokens {
		if strings.Contains(body, t) {
			n += bodyWeight
		}
		if strings.Contains(title, t) {
			n += titleWeight
		}
	}
	return n
}

func (s *LexicalScorer) jitter(query, docID string) float64 {
	if s.maxJitter == 0 {
		return 0
	}
	if s.mode == JitterRandom {
		return rand.Float64() * s.maxJitter //nolint:gosec // tie-breaker, not security
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(query))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(docID))
	// 53 high bits -> uniform float in [0, 1).
	return float64(h.Sum64()>>11) / (1 << 53) * s.maxJitter
}
