package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/domain"
	domanswer "github.com/kailas-cloud/vince/internal/domain/rag/answer"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
	"github.com/kailas-cloud/vince/internal/metrics"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

// Synthesis outcome labels.
const (
	statusOK        = "ok"
	statusError     = "error"
	statusNoResults = "no_results"
)

// Config holds answer synthesis settings.
type Config struct {
	DefaultBackend backend.Backend
	Timeout        time.Duration
}

// Service retrieves passages and turns them into a cited answer.
// It never returns an error: failures degrade to fixed answers.
type Service struct {
	retriever      Retriever
	generators     map[backend.Backend]domain.Generator
	defaultBackend backend.Backend
	timeout        time.Duration
	logger         *zap.Logger
}

// New creates an answer service. generators maps every configured backend to its
// generator; backends missing from the map are reported as not configured.
func New(
	retriever Retriever, generators map[backend.Backend]domain.Generator,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DefaultBackend == "" {
		cfg.DefaultBackend = backend.Local
	}
	gens := make(map[backend.Backend]domain.Generator, len(generators))
	for b, g := range generators {
		if g != nil {
			gens[b] = g
		}
	}
	return &Service{
		retriever:      retriever,
		generators:     gens,
		defaultBackend: cfg.DefaultBackend,
		timeout:        cfg.Timeout,
		logger:         logger,
	}
}

// Answer runs retrieval and, when passages were found, generation.
// Empty retrieval short-circuits with the no-results answer without calling
// the generator. Any retrieval or generation failure yields the fallback answer.
func (s *Service) Answer(ctx context.Context, req *request.Request) domanswer.Response {
	b := s.backendFor(req)

	passages, err := s.retriever.Retrieve(ctx, req)
	if err != nil {
		s.logger.Warn("Retrieval failed, returning fallback answer",
			zap.String("backend", string(b)),
			zap.Error(err),
		)
		metrics.SynthesisRequestsTotal.WithLabelValues(string(b), statusError).Inc()
		return domanswer.Fallback(req.Question())
	}

	if len(passages) == 0 {
		metrics.SynthesisRequestsTotal.WithLabelValues(string(b), statusNoResults).Inc()
		return domanswer.NoResults(req.Question())
	}

	gen, err := s.generator(b)
	if err != nil {
		s.logger.Warn("Generation backend unavailable, returning fallback answer",
			zap.String("backend", string(b)),
			zap.Error(err),
		)
		metrics.SynthesisRequestsTotal.WithLabelValues(string(b), statusError).Inc()
		return domanswer.Fallback(req.Question())
	}

	prompt := BuildPrompt(req.Question(), passages)

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := gen.Generate(genCtx, prompt)
	duration := time.Since(start)
	metrics.SynthesisDuration.WithLabelValues(string(b)).Observe(duration.Seconds())

	if err != nil {
		s.logger.Warn("Generation failed, returning fallback answer",
			zap.String("backend", string(b)),
			zap.Duration("duration", duration),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
		metrics.SynthesisRequestsTotal.WithLabelValues(string(b), statusError).Inc()
		return domanswer.Fallback(req.Question())
	}

	domain.UsageFromContext(ctx).AddGeneration(out)
	metrics.SynthesisRequestsTotal.WithLabelValues(string(b), statusOK).Inc()
	metrics.SynthesisTokensTotal.WithLabelValues(string(b), "prompt").Add(float64(out.PromptTokens))
	metrics.SynthesisTokensTotal.WithLabelValues(string(b), "completion").Add(float64(out.CompletionTokens))

	s.logger.Debug("Answer generated",
		zap.String("backend", string(b)),
		zap.Duration("duration", duration),
		zap.Int("passages", len(passages)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
	)

	return domanswer.New(req.Question(), out.Text, passages)
}

// Backends lists the configured generation backends in canonical order.
func (s *Service) Backends() []backend.Backend {
	out := make([]backend.Backend, 0, len(s.generators))
	for _, b := range backend.All {
		if _, ok := s.generators[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// DefaultBackend returns the backend used when a request names none.
func (s *Service) DefaultBackend() backend.Backend { return s.defaultBackend }

func (s *Service) backendFor(req *request.Request) backend.Backend {
	if b := req.Backend(); b != "" {
		return b
	}
	return s.defaultBackend
}

func (s *Service) generator(b backend.Backend) (domain.Generator, error) {
	g, ok := s.generators[b]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendNotConfigured, b)
	}
	return g, nil
}
