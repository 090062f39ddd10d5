package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/kailas-cloud/vince/internal/domain"
)

// DefaultHost is the Ollama endpoint used when none is configured.
const DefaultHost = "http://localhost:11434"

// Generator answers prompts with a local model served by Ollama.
type Generator struct {
	client      *api.Client
	model       string
	temperature float32
}

// Config holds the Ollama settings.
type Config struct {
	Host        string
	Model       string
	Temperature float32
}

// NewGenerator creates an Ollama generator.
func NewGenerator(cfg *Config) (*Generator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &Generator{
		client:      api.NewClient(u, http.DefaultClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate implements domain.Generator. Streaming is disabled: the whole answer
// arrives in one response.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": g.temperature},
	}

	var out domain.Generation
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.Text += resp.Response
		if resp.Done {
			out.PromptTokens = resp.PromptEvalCount
			out.CompletionTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return domain.Generation{}, wrapError(err)
	}
	return out, nil
}

// HealthCheck pings the Ollama server.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if err := g.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat: %w", err)
	}
	return nil
}

func wrapError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("ollama error %d: %s: %w: %w",
				statusErr.StatusCode, statusErr.ErrorMessage, domain.ErrRateLimited, domain.ErrSynthesisFailed)
		}
		return fmt.Errorf("ollama error %d: %s: %w", statusErr.StatusCode, statusErr.ErrorMessage, domain.ErrSynthesisFailed)
	}
	return fmt.Errorf("ollama request failed: %w: %w", domain.ErrSynthesisFailed, err)
}
