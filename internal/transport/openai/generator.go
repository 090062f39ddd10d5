package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/vince/internal/domain"
)

// Generator answers prompts with the OpenAI-compatible chat completions API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// GeneratorConfig holds the chat provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewGenerator creates a chat completions generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Generate implements domain.Generator. The prompt is sent as a single user message.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return domain.Generation{}, parseAPIError("chat", err, domain.ErrSynthesisFailed)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, fmt.Errorf("empty chat response: %w", domain.ErrSynthesisFailed)
	}

	return domain.Generation{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
