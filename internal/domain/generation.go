package domain

import "context"

// Generator is the contract of the external answer generation service.
// Implementations must honour ctx cancellation and wrap provider failures
// with ErrSynthesisFailed.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Generation is the text produced for a prompt together with token usage.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
