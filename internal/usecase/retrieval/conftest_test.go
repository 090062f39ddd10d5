package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
)

// --- Mocks ---

type mockCorpus struct {
	docs []document.Document
}

func (m *mockCorpus) All() []document.Document { return m.docs }

type mockScorer struct {
	scores []float64
	err    error
	called bool
}

func (m *mockScorer) Name() string { return "mock" }

func (m *mockScorer) Score(_ context.Context, _ string, candidates []Candidate) ([]float64, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	if m.scores != nil {
		return m.scores, nil
	}
	return make([]float64, len(candidates)), nil
}

// mockEmbedder maps texts to vectors by keyword: a text containing a key of
// vectors gets that vector, anything else gets fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	failOn   string
	calls    int
}

var errEmbed = errors.New("embed failed")

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return domain.EmbeddingResult{}, errEmbed
	}
	for k, v := range m.vectors {
		if strings.Contains(text, k) {
			return domain.EmbeddingResult{Embedding: v}, nil
		}
	}
	return domain.EmbeddingResult{Embedding: m.fallback}, nil
}

// --- Fixtures ---

func mustDoc(t *testing.T, id, title, content, partner, country, city string) document.Document {
	t.Helper()
	d, err := document.New(id, "https://example.org/"+id, title, content, facet.NewValues(partner, country, city))
	if err != nil {
		t.Fatalf("document.New(%s): %v", id, err)
	}
	return d
}

func mustSet(t *testing.T, kv ...string) facet.Set {
	t.Helper()
	var cs []facet.Constraint
	for i := 0; i+1 < len(kv); i += 2 {
		c, err := facet.NewConstraint(facet.Key(kv[i]), kv[i+1])
		if err != nil {
			t.Fatalf("NewConstraint: %v", err)
		}
		cs = append(cs, c)
	}
	s, err := facet.NewSet(cs...)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return s
}

func fixtureDocs(t *testing.T) []document.Document {
	t.Helper()
	return []document.Document{
		mustDoc(t, "a", "Consumer rights", "Complaints about purchases in Sweden.", "konsumentverket", "sweden", "karlstad"),
		mustDoc(t, "b", "Lost baggage", "What to do when baggage is delayed.", "konsumentverket", "sweden", "any"),
		mustDoc(t, "c", "Residence permit for studies", "Apply for a residence permit in Finland.", "migri", "finland", "any"),
		mustDoc(t, "d", "Student services", "Housing and health care for students in Turku.", "tuas", "finland", "turku"),
	}
}
