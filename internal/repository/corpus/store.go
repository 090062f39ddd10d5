package corpus

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vince/internal/domain"
	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
)

//go:embed default.yaml
var defaultCorpus []byte

// Simulated locator bounds, used when documents carry no page.
const (
	simulatedPages   = 30
	simulatedSection = "Section 1"
)

// Store is the immutable in-memory document table. Safe for concurrent use:
// nothing is written after construction.
type Store struct {
	docs []document.Document
	byID map[string]int
}

// Option configures corpus loading.
type Option func(*options)

type options struct {
	simulateLocator bool
}

// WithSimulatedLocator assigns a deterministic page (1..30) and "Section 1"
// to documents that have no locator.
func WithSimulatedLocator() Option {
	return func(o *options) { o.simulateLocator = true }
}

// New builds a Store from documents. IDs must be unique.
func New(docs []document.Document, opts ...Option) (*Store, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Store{
		docs: make([]document.Document, 0, len(docs)),
		byID: make(map[string]int, len(docs)),
	}
	for _, d := range docs {
		if _, dup := s.byID[d.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate document id %q", domain.ErrInvalidDocument, d.ID())
		}
		if o.simulateLocator && d.Page() == nil {
			d = d.WithLocator(simulatedPage(d.ID()), simulatedSection)
		}
		s.byID[d.ID()] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return s, nil
}

// Parse builds a Store from YAML corpus data.
func Parse(data []byte, opts ...Option) (*Store, error) {
	var f fileDTO
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	docs := make([]document.Document, 0, len(f.Documents))
	for i, entry := range f.Documents {
		d, err := entry.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", domain.ErrInvalidDocument, i, err)
		}
		docs = append(docs, d)
	}
	return New(docs, opts...)
}

// Load reads a YAML corpus file. An empty path loads the built-in corpus.
func Load(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return Default(opts...)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return Parse(data, opts...)
}

// Default returns the built-in corpus.
func Default(opts ...Option) (*Store, error) {
	return Parse(defaultCorpus, opts...)
}

// All returns the documents in corpus order. The slice is a copy;
// documents are immutable values.
func (s *Store) All() []document.Document {
	return slices.Clone(s.docs)
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.docs) }

// Get returns a document by id.
func (s *Store) Get(id string) (document.Document, error) {
	i, ok := s.byID[id]
	if !ok {
		return document.Document{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, id)
	}
	return s.docs[i], nil
}

// Catalog returns the distinct values of every facet, sorted. The sentinel is omitted.
func (s *Store) Catalog() map[facet.Key][]string {
	seen := make(map[facet.Key]map[string]struct{}, len(facet.Keys))
	for _, k := range facet.Keys {
		seen[k] = make(map[string]struct{})
	}
	for i := range s.docs {
		values := s.docs[i].Facets()
		for _, k := range facet.Keys {
			if v := values.Get(k); v != facet.Any {
				seen[k][v] = struct{}{}
			}
		}
	}

	out := make(map[facet.Key][]string, len(seen))
	for k, set := range seen {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		slices.Sort(values)
		out[k] = values
	}
	return out
}

func simulatedPage(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32()%simulatedPages) + 1
}
