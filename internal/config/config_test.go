package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Retrieval.Scorer != ScorerLexical {
		t.Errorf("scorer = %q", cfg.Retrieval.Scorer)
	}
	if cfg.Retrieval.JitterMode != "stable" {
		t.Errorf("jitter_mode = %q", cfg.Retrieval.JitterMode)
	}
	if cfg.Synthesis.DefaultBackend != "local" {
		t.Errorf("default_backend = %q", cfg.Synthesis.DefaultBackend)
	}
	if cfg.Synthesis.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Synthesis.Timeout())
	}
	if cfg.Synthesis.Temperature != 0.2 {
		t.Errorf("temperature = %v", cfg.Synthesis.Temperature)
	}
	if cfg.Cache.Driver != CacheMemory || cfg.Cache.Size != 4096 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL() != 168*time.Hour {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"unknown scorer", func(c *Config) { c.Retrieval.Scorer = "bm25" }, "retrieval.scorer"},
		{"embedding scorer without key", func(c *Config) { c.Retrieval.Scorer = ScorerEmbedding }, "embedding.api_key"},
		{"unknown jitter mode", func(c *Config) { c.Retrieval.JitterMode = "chaotic" }, "retrieval.jitter_mode"},
		{"negative jitter", func(c *Config) { c.Retrieval.JitterMax = -0.1 }, "retrieval.jitter_max"},
		{"unknown backend", func(c *Config) { c.Synthesis.DefaultBackend = "claude" }, "synthesis.default_backend"},
		{"redis without addrs", func(c *Config) { c.Cache.Driver = CacheRedis }, "cache.addrs"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_EmbeddingScorerWithKey(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Scorer = ScorerEmbedding
	cfg.Embedding.APIKey = "sk-test"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("VINCE_TEST_PORT", "9090")
	t.Setenv("VINCE_TEST_KEY", "secret")

	data := []byte(`
http:
  port: ${VINCE_TEST_PORT}
synthesis:
  default_backend: gemini
  gemini:
    api_key: "${VINCE_TEST_KEY}"
  local:
    host: "${VINCE_TEST_UNSET:-http://ollama:11434}"
    model: llama3.2
retrieval:
  jitter_max: 0
  simulate_locator: true
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Synthesis.Gemini.APIKey != "secret" {
		t.Errorf("gemini api_key = %q", cfg.Synthesis.Gemini.APIKey)
	}
	if cfg.Synthesis.Local.Host != "http://ollama:11434" {
		t.Errorf("local host = %q", cfg.Synthesis.Local.Host)
	}
	if !cfg.Retrieval.SimulateLocator || cfg.Retrieval.JitterMax != 0 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 0\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Retrieval.Scorer != ScorerLexical || !cfg.Retrieval.SimulateLocator {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Cache.Driver != CacheMemory {
		t.Errorf("cache driver = %q", cfg.Cache.Driver)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q", got)
	}
}
