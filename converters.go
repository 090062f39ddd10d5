package vince

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	g, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.Generation{}, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}
	return domain.Generation{
		Text:             g.Text,
		PromptTokens:     g.PromptTokens,
		CompletionTokens: g.CompletionTokens,
	}, nil
}

func sourceFromDomain(s passage.Source) Source {
	return Source{
		File:            s.File,
		URL:             s.URL,
		Page:            s.Page,
		Section:         s.Section,
		Similarity:      s.Similarity,
		OriginalIndices: s.OriginalIndices,
	}
}

func sourcesFromDomain(ss []passage.Source) []Source {
	out := make([]Source, len(ss))
	for i, s := range ss {
		out[i] = sourceFromDomain(s)
	}
	return out
}
