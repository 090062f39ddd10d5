package document

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/vince/internal/domain/facet"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Document size limits.
const (
	MaxContentSize = 163840 // 160KB
	MaxTitleLength = 512
	MaxIDLength    = 256
)

// Document is a corpus passage (immutable value object).
type Document struct {
	id      string
	url     string
	title   string
	content string
	facets  facet.Values
	page    *int
	section string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Title and content are required.
// Facet values are normalised; an empty facet value becomes facet.Any.
func New(id, url, title, content string, facets facet.Values) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required for document %q", id)
	}
	if len(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("title too long for document %q (max %d)", id, MaxTitleLength)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required for document %q", id)
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large for document %q (max %d bytes)", id, MaxContentSize)
	}

	return Document{
		id:      id,
		url:     url,
		title:   title,
		content: content,
		facets:  normalizeFacets(facets),
	}, nil
}

// WithLocator returns a copy carrying a page and section locator.
// A non-positive page means "unknown".
func (d Document) WithLocator(page int, section string) Document {
	if page > 0 {
		p := page
		d.page = &p
	} else {
		d.page = nil
	}
	d.section = section
	return d
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// URL returns the source URL.
func (d *Document) URL() string { return d.url }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the passage body.
func (d *Document) Content() string { return d.content }

// Facets returns the normalised facet values.
func (d *Document) Facets() facet.Values { return d.facets }

// Page returns the page locator, nil when unknown.
func (d *Document) Page() *int {
	if d.page == nil {
		return nil
	}
	p := *d.page
	return &p
}

// Section returns the section locator, empty when unknown.
func (d *Document) Section() string { return d.section }

func normalizeFacets(v facet.Values) facet.Values {
	n := facet.NewValues(v.Partner, v.Country, v.City)
	if n.Partner == "" {
		n.Partner = facet.Any
	}
	if n.Country == "" {
		n.Country = facet.Any
	}
	if n.City == "" {
		n.City = facet.Any
	}
	return n
}
