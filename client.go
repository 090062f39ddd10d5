package vince

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/db"
	"github.com/kailas-cloud/vince/internal/db/memory"
	dbRedis "github.com/kailas-cloud/vince/internal/db/redis"
	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
	"github.com/kailas-cloud/vince/internal/metrics"
	"github.com/kailas-cloud/vince/internal/repository/corpus"
	"github.com/kailas-cloud/vince/internal/repository/embcache"
	"github.com/kailas-cloud/vince/internal/transport/gemini"
	"github.com/kailas-cloud/vince/internal/transport/ollama"
	openaiGen "github.com/kailas-cloud/vince/internal/transport/openai"
	answeruc "github.com/kailas-cloud/vince/internal/usecase/answer"
	retrievaluc "github.com/kailas-cloud/vince/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the vince SDK entry point. It runs retrieval and generation in-process.
type Client struct {
	store     db.Store
	corpus    *corpus.Store
	retrieval *retrievaluc.Service
	answers   *answeruc.Service
}

// New creates a Client. Without options it serves the built-in corpus with
// lexical scoring and no generation backend.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		jitterMax:  retrievaluc.DefaultMaxJitter,
		jitterMode: string(retrievaluc.JitterStable),
		generators: make(map[string]generatorSpec),
		cacheSize:  memory.DefaultSize,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	docs, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}

	generators, err := buildGenerators(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{corpus: docs}

	var scorer retrievaluc.Scorer = retrievaluc.NewLexicalScorer(cfg.jitterMax, retrievaluc.JitterMode(cfg.jitterMode))
	if cfg.embedder != nil {
		store, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		c.store = store
		metrics.RegisterRAGMetrics()
		emb := embcache.New(&embedderAdapter{inner: cfg.embedder}, store, embcache.Config{
			Namespace:  "sdk",
			TTL:        cfg.cacheTTL,
			CacheTotal: metrics.EmbeddingCacheTotal,
		}, cfg.logger)
		scorer = retrievaluc.NewEmbeddingScorer(emb, emb, cfg.embedderConcurrency)
	}

	c.retrieval = retrievaluc.New(docs, scorer, cfg.logger)
	c.answers = answeruc.New(c.retrieval, generators, answeruc.Config{
		DefaultBackend: backend.Backend(cfg.defaultBackend),
		Timeout:        cfg.timeout,
	}, cfg.logger)

	return c, nil
}

func loadCorpus(cfg *clientConfig) (*corpus.Store, error) {
	var opts []corpus.Option
	if cfg.simulateLocator {
		opts = append(opts, corpus.WithSimulatedLocator())
	}

	var (
		s   *corpus.Store
		err error
	)
	if cfg.corpusYAML != nil {
		s, err = corpus.Parse(cfg.corpusYAML, opts...)
	} else {
		s, err = corpus.Load(cfg.corpusPath, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("vince: load corpus: %w", err)
	}
	return s, nil
}

func buildGenerators(cfg *clientConfig) (map[backend.Backend]domain.Generator, error) {
	out := make(map[backend.Backend]domain.Generator, len(cfg.generators))
	for name, gs := range cfg.generators {
		b, err := backend.Parse(name)
		if err != nil || b == "" {
			return nil, fmt.Errorf("vince: unknown backend %q", name)
		}
		g, err := newGenerator(b, gs, cfg.temperature)
		if err != nil {
			return nil, fmt.Errorf("vince: backend %s: %w", b, err)
		}
		out[b] = g
	}
	if cfg.defaultBackend != "" {
		if _, err := backend.Parse(cfg.defaultBackend); err != nil {
			return nil, fmt.Errorf("vince: %w", err)
		}
	}
	return out, nil
}

func newGenerator(b backend.Backend, gs generatorSpec, temperature float32) (domain.Generator, error) {
	if gs.custom != nil {
		return &generatorAdapter{inner: gs.custom}, nil
	}
	switch b {
	case backend.Local:
		g, err := ollama.NewGenerator(&ollama.Config{Host: gs.ollamaHost, Model: gs.model, Temperature: temperature})
		if err != nil {
			return nil, fmt.Errorf("create ollama generator: %w", err)
		}
		return g, nil
	case backend.Gemini:
		g, err := gemini.NewGenerator(context.Background(), &gemini.Config{
			APIKey: gs.apiKey, Model: gs.model, Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}
		return g, nil
	default:
		return openaiGen.NewGenerator(&openaiGen.GeneratorConfig{
			APIKey: gs.apiKey, BaseURL: gs.baseURL, Model: gs.model, Temperature: temperature,
		}), nil
	}
}

func createStore(cfg *clientConfig) (db.Store, error) {
	if len(cfg.redisAddrs) == 0 {
		s, err := memory.NewStore(cfg.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("vince: create memory cache: %w", err)
		}
		return s, nil
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("vince: create redis cache: %w", err)
	}
	if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("vince: cache not ready: %w", err)
	}
	return s, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ask retrieves passages for the query and generates a cited answer.
// Generation failures do not return an error: the answer carries a fixed
// fallback text and no sources. Only invalid queries return an error.
func (c *Client) Ask(ctx context.Context, q Query) (Answer, error) {
	req, err := q.toRequest()
	if err != nil {
		return Answer{}, err
	}

	resp := c.answers.Answer(ctx, &req)
	return Answer{
		Question:       resp.Question(),
		Text:           resp.Text(),
		Sources:        sourcesFromDomain(resp.Sources()),
		RetrievalCount: resp.RetrievalCount(),
	}, nil
}

// Retrieve returns the ranked sources for the query without generating an answer.
func (c *Client) Retrieve(ctx context.Context, q Query) ([]Source, error) {
	req, err := q.toRequest()
	if err != nil {
		return nil, err
	}

	passages, err := c.retrieval.Retrieve(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	out := make([]Source, len(passages))
	for i := range passages {
		out[i] = sourceFromDomain(passages[i].Source())
	}
	return out, nil
}

// Documents lists the corpus documents matching the filter.
func (c *Client) Documents(f Filter) ([]DocumentInfo, error) {
	set, err := f.toSet()
	if err != nil {
		return nil, err
	}

	docs := c.retrieval.Documents(set)
	out := make([]DocumentInfo, len(docs))
	for i := range docs {
		facets := docs[i].Facets()
		out[i] = DocumentInfo{
			ID:      docs[i].ID(),
			URL:     docs[i].URL(),
			Title:   docs[i].Title(),
			Partner: facets.Partner,
			Country: facets.Country,
			City:    facets.City,
		}
	}
	return out, nil
}

// Facets returns the distinct facet values and the configured backends.
func (c *Client) Facets() Facets {
	catalog := c.corpus.Catalog()
	backends := c.answers.Backends()
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	return Facets{
		Partners:       catalog[facet.Partner],
		Countries:      catalog[facet.Country],
		Cities:         catalog[facet.City],
		Backends:       names,
		DefaultBackend: string(c.answers.DefaultBackend()),
	}
}

func (q Query) toRequest() (request.Request, error) {
	set, err := q.Filter.toSet()
	if err != nil {
		return request.Request{}, err
	}
	b, err := backend.Parse(q.Backend)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req, err := request.New(q.Question, q.TopK, set, b)
	if err != nil {
		return request.Request{}, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

func (f Filter) toSet() (facet.Set, error) {
	values := map[facet.Key]string{
		facet.Partner: f.Partner,
		facet.Country: f.Country,
		facet.City:    f.City,
	}
	constraints := make([]facet.Constraint, 0, len(values))
	for _, k := range facet.Keys {
		if values[k] == "" {
			continue
		}
		c, err := facet.NewConstraint(k, values[k])
		if err != nil {
			return facet.Set{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		constraints = append(constraints, c)
	}
	set, err := facet.NewSet(constraints...)
	if err != nil {
		return facet.Set{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return set, nil
}
