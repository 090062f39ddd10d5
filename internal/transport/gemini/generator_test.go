package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/vince/internal/domain"
)

func newTestGenerator(t *testing.T, url string) *Generator {
	t.Helper()
	g, err := NewGenerator(context.Background(), &Config{
		APIKey: "test-key", Model: "gemini-test", Temperature: 0.2, BaseURL: url,
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestNewGenerator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no api key", Config{Model: "m"}},
		{"no model", Config{APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(context.Background(), &tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		raw, _ := json.Marshal(body["contents"])
		if !strings.Contains(string(raw), "[SOURCE_1]") {
			t.Errorf("prompt not forwarded: %s", raw)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Apply online [SOURCE_1]."}]}}],
			"usageMetadata": {"promptTokenCount": 90, "candidatesTokenCount": 6, "totalTokenCount": 96}
		}`))
	}))
	defer server.Close()

	out, err := newTestGenerator(t, server.URL).Generate(context.Background(), "[SOURCE_1]: text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Text != "Apply online [SOURCE_1]." {
		t.Errorf("Text = %q", out.Text)
	}
	if out.PromptTokens != 90 || out.CompletionTokens != 6 {
		t.Errorf("usage = %d/%d", out.PromptTokens, out.CompletionTokens)
	}
}

func TestGenerator_APIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{"bad key", http.StatusBadRequest, false},
		{"quota", http.StatusTooManyRequests, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "nope", "status": "FAILED"}}`, tt.status)
			}))
			defer server.Close()

			_, err := newTestGenerator(t, server.URL).Generate(context.Background(), "p")
			if !errors.Is(err, domain.ErrSynthesisFailed) {
				t.Fatalf("expected ErrSynthesisFailed, got %v", err)
			}
			if errors.Is(err, domain.ErrRateLimited) != tt.rateLimited {
				t.Errorf("rate limited = %v, want %v (%v)", !tt.rateLimited, tt.rateLimited, err)
			}
		})
	}
}
