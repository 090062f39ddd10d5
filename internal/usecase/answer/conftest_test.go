package answer

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/backend"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
	"github.com/kailas-cloud/vince/internal/domain/rag/request"
)

// --- Mocks ---

type mockRetriever struct {
	passages []passage.Passage
	err      error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ *request.Request) ([]passage.Passage, error) {
	return m.passages, m.err
}

type mockGenerator struct {
	mu         sync.Mutex
	text       string
	err        error
	block      bool
	calls      int
	lastPrompt string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	m.mu.Lock()
	m.calls++
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return domain.Generation{}, ctx.Err()
	}
	if m.err != nil {
		return domain.Generation{}, m.err
	}
	return domain.Generation{Text: m.text, PromptTokens: 100, CompletionTokens: 20}, nil
}

// --- Fixtures ---

func fixturePassages(t *testing.T) []passage.Passage {
	t.Helper()
	specs := []struct {
		id, title, content string
		score              float64
	}{
		{"5", "Residence permit for studies", "Students from outside the EU need a residence permit.", 0.95},
		{"4", "EU Citizen Right of Residence Registration", "EU citizens register their right of residence.", 0.6},
	}
	out := make([]passage.Passage, len(specs))
	for i, s := range specs {
		d, err := document.New(s.id, "", s.title, s.content, facet.NewValues("migri", "finland", "any"))
		if err != nil {
			t.Fatalf("document.New: %v", err)
		}
		out[i] = passage.New(d.WithLocator(3, "Section 1"), s.score, i+4)
	}
	return out
}

func mustRequest(t *testing.T, question string, b backend.Backend) *request.Request {
	t.Helper()
	req, err := request.New(question, 3, facet.AnySet(), b)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}
