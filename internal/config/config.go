package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the vince API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CORSConfig holds browser access settings for the chat UI.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CorpusConfig selects the document set. An empty path uses the built-in corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// Scorer names.
const (
	ScorerLexical   = "lexical"
	ScorerEmbedding = "embedding"
)

// RetrievalConfig holds relevance scoring settings.
type RetrievalConfig struct {
	Scorer          string  `yaml:"scorer"` // lexical (default), embedding
	JitterMax       float64 `yaml:"jitter_max"`
	JitterMode      string  `yaml:"jitter_mode"` // stable (default), random
	SimulateLocator bool    `yaml:"simulate_locator"`
}

// SynthesisConfig holds answer generation settings.
type SynthesisConfig struct {
	DefaultBackend string       `yaml:"default_backend"` // local (default), gemini, openai
	TimeoutSec     int          `yaml:"timeout_sec"`
	Temperature    float32      `yaml:"temperature"`
	Local          OllamaConfig `yaml:"local"`
	Gemini         GeminiConfig `yaml:"gemini"`
	OpenAI         OpenAIConfig `yaml:"openai"`
}

// Timeout returns the generation timeout.
func (c SynthesisConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// OllamaConfig holds the local backend settings. An empty model disables it.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// GeminiConfig holds Gemini backend settings. An empty API key disables it.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// OpenAIConfig holds settings of an OpenAI-compatible chat backend. An empty API key disables it.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// EmbeddingConfig holds the embedding provider used by the embedding scorer.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	Concurrency         int    `yaml:"concurrency"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheValkey = "valkey"
)

// CacheConfig holds embedding cache storage settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), redis, valkey
	Size             int      `yaml:"size"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TTL returns the cached vector lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, substituting environment variables,
// applying defaults and validating the result.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Retrieval.Scorer == "" {
		c.Retrieval.Scorer = ScorerLexical
	}
	if c.Retrieval.JitterMode == "" {
		c.Retrieval.JitterMode = "stable"
	}
	if c.Synthesis.DefaultBackend == "" {
		c.Synthesis.DefaultBackend = "local"
	}
	if c.Synthesis.TimeoutSec <= 0 {
		c.Synthesis.TimeoutSec = 30
	}
	if c.Synthesis.Temperature <= 0 {
		c.Synthesis.Temperature = 0.2
	}
	if c.Synthesis.Gemini.Model == "" {
		c.Synthesis.Gemini.Model = "gemini-2.0-flash"
	}
	if c.Synthesis.OpenAI.Model == "" {
		c.Synthesis.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 4
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheMemory
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 4096
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 168
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Retrieval.Scorer {
	case ScorerLexical:
	case ScorerEmbedding:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required when retrieval.scorer is %q", ScorerEmbedding)
		}
	default:
		return fmt.Errorf("retrieval.scorer must be %q or %q, got %q", ScorerLexical, ScorerEmbedding, c.Retrieval.Scorer)
	}

	switch c.Retrieval.JitterMode {
	case "stable", "random":
	default:
		return fmt.Errorf("retrieval.jitter_mode must be \"stable\" or \"random\", got %q", c.Retrieval.JitterMode)
	}
	if c.Retrieval.JitterMax < 0 {
		return fmt.Errorf("retrieval.jitter_max must not be negative, got %v", c.Retrieval.JitterMax)
	}

	switch c.Synthesis.DefaultBackend {
	case "local", "gemini", "openai":
	default:
		return fmt.Errorf(
			"synthesis.default_backend must be \"local\", \"gemini\" or \"openai\", got %q",
			c.Synthesis.DefaultBackend,
		)
	}

	switch c.Cache.Driver {
	case CacheMemory:
	case CacheRedis, CacheValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\", \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
