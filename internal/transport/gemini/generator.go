package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/kailas-cloud/vince/internal/domain"
)

// Generator answers prompts with the Gemini API.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string
}

// NewGenerator creates a Gemini generator.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)})
	if err != nil {
		return domain.Generation{}, wrapError(err)
	}

	out := domain.Generation{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// HealthCheck verifies the configured model is reachable.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", g.model, err)
	}
	return nil
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("gemini API error %d: %s: %w: %w",
				apiErr.Code, apiErr.Message, domain.ErrRateLimited, domain.ErrSynthesisFailed)
		}
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrSynthesisFailed)
	}
	return fmt.Errorf("gemini request failed: %w: %w", domain.ErrSynthesisFailed, err)
}
