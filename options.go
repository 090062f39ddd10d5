package vince

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type generatorSpec struct {
	custom Generator

	ollamaHost string
	model      string
	apiKey     string
	baseURL    string
}

type clientConfig struct {
	corpusPath      string
	corpusYAML      []byte
	simulateLocator bool

	jitterMax  float64
	jitterMode string

	generators     map[string]generatorSpec
	defaultBackend string
	temperature    float32
	timeout        time.Duration

	embedder            Embedder
	embedderConcurrency int
	cacheSize           int
	cacheTTL            time.Duration
	redisAddrs          []string
	redisPassword       string

	logger *zap.Logger
}

// WithCorpusFile loads the document set from a YAML file instead of the built-in corpus.
func WithCorpusFile(path string) Option {
	return func(c *clientConfig) { c.corpusPath = path }
}

// WithCorpusYAML parses the document set from YAML bytes.
func WithCorpusYAML(data []byte) Option {
	return func(c *clientConfig) { c.corpusYAML = data }
}

// WithSimulatedLocator reports a deterministic page and section for documents without one.
func WithSimulatedLocator() Option {
	return func(c *clientConfig) { c.simulateLocator = true }
}

// WithJitter sets the lexical scorer tie-breaker: max in [0, 0.3], mode "stable" or "random".
// WithJitter(0, "") gives pure lexical scores.
func WithJitter(maxJitter float64, mode string) Option {
	return func(c *clientConfig) {
		c.jitterMax = maxJitter
		c.jitterMode = mode
	}
}

// WithGenerator registers a custom generation backend under name
// ("local", "gemini" or "openai").
func WithGenerator(name string, g Generator) Option {
	return func(c *clientConfig) { c.generators[name] = generatorSpec{custom: g} }
}

// WithOllama registers the local backend served by Ollama.
func WithOllama(host, model string) Option {
	return func(c *clientConfig) {
		c.generators[BackendLocal] = generatorSpec{ollamaHost: host, model: model}
	}
}

// WithGemini registers the Gemini backend.
func WithGemini(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.generators[BackendGemini] = generatorSpec{apiKey: apiKey, model: model}
	}
}

// WithOpenAI registers an OpenAI-compatible chat backend.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.generators[BackendOpenAI] = generatorSpec{apiKey: apiKey, baseURL: baseURL, model: model}
	}
}

// WithDefaultBackend selects the backend used when a query names none.
func WithDefaultBackend(name string) Option {
	return func(c *clientConfig) { c.defaultBackend = name }
}

// WithTemperature sets the sampling temperature of built-in backends.
func WithTemperature(t float32) Option {
	return func(c *clientConfig) { c.temperature = t }
}

// WithTimeout bounds a single generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithEmbedder switches retrieval to embedding similarity. Document vectors are
// cached in memory (or Redis, see WithRedisCache).
func WithEmbedder(e Embedder, concurrency int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.embedderConcurrency = concurrency
	}
}

// WithCacheSize sets the in-memory embedding cache capacity.
func WithCacheSize(n int) Option {
	return func(c *clientConfig) { c.cacheSize = n }
}

// WithRedisCache stores cached embeddings in Redis or Valkey.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
