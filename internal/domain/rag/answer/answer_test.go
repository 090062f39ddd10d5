package answer

import (
	"testing"

	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
	"github.com/kailas-cloud/vince/internal/domain/rag/passage"
)

func makePassage(t *testing.T, id string, score float64) passage.Passage {
	t.Helper()
	d, err := document.New(id, "", "Title "+id, "secret body "+id, facet.NewValues("p", "c", "x"))
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return passage.New(d, score, 1)
}

func TestNew_CountMatchesSources(t *testing.T) {
	r := New("q", "answer [SOURCE_1]", []passage.Passage{
		makePassage(t, "a", 0.9),
		makePassage(t, "b", 0.4),
	})
	if r.RetrievalCount() != len(r.Sources()) || r.RetrievalCount() != 2 {
		t.Errorf("RetrievalCount() = %d, len(Sources) = %d", r.RetrievalCount(), len(r.Sources()))
	}
	if r.Question() != "q" || r.Text() != "answer [SOURCE_1]" {
		t.Errorf("unexpected echo: %q / %q", r.Question(), r.Text())
	}
}

func TestNew_SortedDescending(t *testing.T) {
	r := New("q", "a", []passage.Passage{
		makePassage(t, "low", 0.1),
		makePassage(t, "high", 0.8),
		makePassage(t, "mid", 0.5),
	})
	src := r.Sources()
	for i := 1; i < len(src); i++ {
		if src[i-1].Similarity < src[i].Similarity {
			t.Fatalf("sources not sorted: %v", src)
		}
	}
	if src[0].File != "Title high" {
		t.Errorf("first source = %q", src[0].File)
	}
}

func TestNew_TiesKeepRankOrder(t *testing.T) {
	r := New("q", "a", []passage.Passage{
		makePassage(t, "first", 0.5),
		makePassage(t, "second", 0.5),
		makePassage(t, "top", 0.7),
		makePassage(t, "third", 0.5),
	})
	want := []string{"Title top", "Title first", "Title second", "Title third"}
	src := r.Sources()
	for i, w := range want {
		if src[i].File != w {
			t.Errorf("source[%d] = %q, want %q", i, src[i].File, w)
		}
	}
}

func TestNew_EmptyTextReplaced(t *testing.T) {
	r := New("q", "", []passage.Passage{makePassage(t, "a", 0.5)})
	if r.Text() != EmptyText {
		t.Errorf("Text() = %q", r.Text())
	}
}

func TestCannedResponses(t *testing.T) {
	for _, r := range []Response{NoResults("q"), Fallback("q")} {
		if r.RetrievalCount() != 0 || len(r.Sources()) != 0 {
			t.Errorf("canned response must have no sources, got %d", r.RetrievalCount())
		}
		if r.Sources() == nil {
			t.Error("Sources() must be an empty slice, not nil")
		}
		if r.Question() != "q" {
			t.Errorf("Question() = %q", r.Question())
		}
	}
	nr := NoResults("q")
	if nr.Text() != NoResultsText {
		t.Errorf("Text() = %q", nr.Text())
	}
}
