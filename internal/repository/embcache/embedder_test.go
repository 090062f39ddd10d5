package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vince/internal/db/memory"
	"github.com/kailas-cloud/vince/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "vince:emb_cache:test-model:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := encodeVector([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner embedder called on cache hit")
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		setCalled = true
		return nil
	}

	if _, err := ce.Embed(context.Background(), "test"); err == nil {
		t.Fatal("expected error")
	}
	if setCalled {
		t.Error("failed embeddings must not be cached")
	}
}

func TestEmbed_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection reset")
	}

	result, err := ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("store failure must not fail Embed: %v", err)
	}
	if len(result.Embedding) != 1 || inner.calls != 1 {
		t.Errorf("expected inner result, got %v (calls=%d)", result.Embedding, inner.calls)
	}
}

func TestEmbed_CorruptEntry(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	result, err := ce.Embed(context.Background(), "text")
	if err != nil || len(result.Embedding) != 2 {
		t.Fatalf("corrupt entry should fall through to inner: %v, %v", result.Embedding, err)
	}
}

func TestEmbed_NamespaceIsolation(t *testing.T) {
	store, _ := memory.NewStore(16)
	a := New(&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}, store,
		Config{Namespace: "model-a"}, zap.NewNop())
	bInner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{2}}}
	b := New(bInner, store, Config{Namespace: "model-b"}, zap.NewNop())

	_, _ = a.Embed(context.Background(), "same text")
	got, _ := b.Embed(context.Background(), "same text")

	if got.Embedding[0] != 2 || bInner.calls != 1 {
		t.Errorf("namespaces must not share vectors: got %v", got.Embedding)
	}
}

func TestEmbed_MetricsAgainstMemoryStore(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	store, _ := memory.NewStore(16)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5, 0.25}, TotalTokens: 3}}
	ce := New(inner, store, Config{Namespace: "m", CacheTotal: counter}, zap.NewNop())

	first, _ := ce.Embed(context.Background(), "text")
	second, _ := ce.Embed(context.Background(), "text")

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if first.TotalTokens != 3 || second.TotalTokens != 0 {
		t.Errorf("tokens = %d/%d", first.TotalTokens, second.TotalTokens)
	}
	if second.Embedding[1] != 0.25 {
		t.Errorf("round trip lost data: %v", second.Embedding)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hits = %v", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("misses = %v", v)
	}
}

func TestDecodeVector_Invalid(t *testing.T) {
	if _, err := decodeVector([]byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestNamespace(t *testing.T) {
	if got := Namespace("openai", "text-embedding-3-small", 256); got != "openai:text-embedding-3-small:256" {
		t.Errorf("Namespace() = %q", got)
	}
	if Namespace("openai", "m", 256) == Namespace("openai", "m", 512) {
		t.Error("dimensions must change the namespace")
	}
	if Namespace("openai", "m", 0) == Namespace("nebius", "m", 0) {
		t.Error("provider must change the namespace")
	}
}

func TestEmbed_DimensionChangeSkipsStaleVectors(t *testing.T) {
	store, _ := memory.NewStore(16)
	old := New(&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0, 9}}}, store,
		Config{Namespace: Namespace("openai", "m", 3)}, zap.NewNop())
	_, _ = old.Embed(context.Background(), "doc")

	freshInner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0, 1}}}
	fresh := New(freshInner, store, Config{Namespace: Namespace("openai", "m", 2)}, zap.NewNop())
	got, err := fresh.Embed(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got.Embedding) != 2 || freshInner.calls != 1 {
		t.Errorf("stale %d-dim vector served after dimension change", len(got.Embedding))
	}
}
