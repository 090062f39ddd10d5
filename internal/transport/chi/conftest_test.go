package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
	"github.com/kailas-cloud/vince/internal/repository/corpus"
	answeruc "github.com/kailas-cloud/vince/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/vince/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/vince/internal/usecase/retrieval"
)

// --- Mocks ---

type mockGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (m *mockGenerator) Generate(_ context.Context, _ string) (domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.Generation{}, m.err
	}
	return domain.Generation{Text: m.text, PromptTokens: 100, CompletionTokens: 20}, nil
}

type failingScorer struct {
	err error
}

func (f *failingScorer) Score(_ context.Context, _ string, _ []retrievaluc.Candidate) ([]float64, error) {
	return nil, f.err
}

func (f *failingScorer) Name() string { return "failing" }

// --- Fixtures ---

type testEnv struct {
	handler http.Handler
	gen     *mockGenerator
}

type envOption func(*envConfig)

type envConfig struct {
	scorer retrievaluc.Scorer
}

func withScorer(s retrievaluc.Scorer) envOption {
	return func(c *envConfig) { c.scorer = s }
}

func newTestEnv(t *testing.T, gen *mockGenerator, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{scorer: retrievaluc.NewLexicalScorer(retrievaluc.DefaultMaxJitter, retrievaluc.JitterStable)}
	for _, o := range opts {
		o(&cfg)
	}

	store, err := corpus.Default(corpus.WithSimulatedLocator())
	if err != nil {
		t.Fatalf("corpus.Default: %v", err)
	}

	logger := zap.NewNop()
	retrieval := retrievaluc.New(store, cfg.scorer, logger)
	answers := answeruc.New(retrieval,
		map[backend.Backend]domain.Generator{backend.Local: gen},
		answeruc.Config{}, logger)
	health := healthuc.New(store, nil, nil)

	srv := NewServer(answers, retrieval, store, health, logger)
	return &testEnv{
		handler: NewRouter(srv, []string{"http://localhost:*"}, logger),
		gen:     gen,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func zapNop() *zap.Logger { return zap.NewNop() }
