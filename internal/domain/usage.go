package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects token usage for a single request.
// The handler puts a mutable pointer into the context before calling the service;
// embedders and the answer service write to it; the handler reads it for response headers.
// Safe for concurrent use: document embeddings are computed in parallel.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	embeddingUsed    bool
	promptTokens     int
	completionTokens int
	generationUsed   bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens. A cache hit records 0.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embeddingUsed = true
	u.mu.Unlock()
}

// AddGeneration records the token usage of a generation call.
func (u *Usage) AddGeneration(g Generation) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.promptTokens += g.PromptTokens
	u.completionTokens += g.CompletionTokens
	u.generationUsed = true
	u.mu.Unlock()
}

// EmbeddingTokens returns the embedding tokens and whether an embedder was called at all.
func (u *Usage) EmbeddingTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embeddingUsed
}

// GenerationTokens returns prompt and completion tokens and whether a generator answered.
func (u *Usage) GenerationTokens() (prompt, completion int, used bool) {
	if u == nil {
		return 0, 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.promptTokens, u.completionTokens, u.generationUsed
}
