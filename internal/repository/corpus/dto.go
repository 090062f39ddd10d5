package corpus

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/vince/internal/domain/document"
	"github.com/kailas-cloud/vince/internal/domain/facet"
)

// fileDTO is the YAML layout of a corpus file.
type fileDTO struct {
	Documents []documentDTO `yaml:"documents"`
}

type documentDTO struct {
	ID      string `yaml:"id"`
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Partner string `yaml:"partner"`
	Country string `yaml:"country"`
	City    string `yaml:"city"`
	Page    int    `yaml:"page"`
	Section string `yaml:"section"`
}

// toDomain converts an entry. Entries without an id get a UUIDv5 of their URL,
// so ids stay stable across restarts.
func (d documentDTO) toDomain() (document.Document, error) {
	id := d.ID
	if id == "" {
		if d.URL == "" {
			return document.Document{}, fmt.Errorf("document %q needs an id or a url", d.Title)
		}
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(d.URL)).String()
	}

	doc, err := document.New(id, d.URL, d.Title, d.Content, facet.Values{
		Partner: d.Partner,
		Country: d.Country,
		City:    d.City,
	})
	if err != nil {
		return document.Document{}, fmt.Errorf("build document: %w", err)
	}
	if d.Page > 0 || d.Section != "" {
		doc = doc.WithLocator(d.Page, d.Section)
	}
	return doc, nil
}
