package facet

import (
	"fmt"
	"strings"
)

// Key names one of the categorical dimensions attached to every document.
type Key string

// Facet keys.
const (
	// Partner is the affiliation of the organisation publishing the document.
	Partner Key = "partner"
	Country Key = "country"
	City    Key = "city"
)

// Keys lists the facets in their canonical order.
var Keys = []Key{Partner, Country, City}

// Any is the normalised sentinel value meaning "no constraint on this facet".
const Any = "any"

// marker prefixes encoded constraint keys and values on the wire ("_country", "_finland").
const marker = "_"

// IsValid reports whether k is a recognised facet.
func (k Key) IsValid() bool {
	return k == Partner || k == Country || k == City
}

// Normalize canonicalises a wire key or value: trims spaces, strips the
// constraint marker and lower-cases.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), marker))
}

// ParseKey converts a wire key such as "_partner" into a Key.
func ParseKey(s string) (Key, error) {
	k := Key(Normalize(s))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown facet %q", s)
	}
	return k, nil
}

// Values holds the facet values of one document.
type Values struct {
	Partner string
	Country string
	City    string
}

// NewValues normalises raw facet values.
func NewValues(partner, country, city string) Values {
	return Values{
		Partner: Normalize(partner),
		Country: Normalize(country),
		City:    Normalize(city),
	}
}

// Get returns the value of facet k.
func (v Values) Get(k Key) string {
	switch k {
	case Partner:
		return v.Partner
	case Country:
		return v.Country
	case City:
		return v.City
	default:
		return ""
	}
}
