package facet

import "fmt"

// Constraint restricts one facet to a value. The Any value imposes no restriction.
type Constraint struct {
	key   Key
	value string
}

// NewConstraint validates and normalises a constraint.
func NewConstraint(key Key, value string) (Constraint, error) {
	if !key.IsValid() {
		return Constraint{}, fmt.Errorf("unknown facet %q", key)
	}
	v := Normalize(value)
	if v == "" {
		return Constraint{}, fmt.Errorf("value is required for facet %q", key)
	}
	return Constraint{key: key, value: v}, nil
}

// Key returns the constrained facet.
func (c Constraint) Key() Key { return c.key }

// Value returns the normalised value.
func (c Constraint) Value() string { return c.value }

// IsAny reports whether the constraint is the sentinel.
func (c Constraint) IsAny() bool { return c.value == Any }

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v Values) bool {
	return c.IsAny() || v.Get(c.key) == c.value
}

// Set holds exactly one constraint per facet. The zero Set constrains nothing.
type Set struct {
	partner Constraint
	country Constraint
	city    Constraint
}

// AnySet returns a Set with every facet unconstrained.
func AnySet() Set {
	return Set{
		partner: Constraint{key: Partner, value: Any},
		country: Constraint{key: Country, value: Any},
		city:    Constraint{key: City, value: Any},
	}
}

// NewSet builds a Set from constraints. Missing facets default to Any,
// a facet given twice is an error.
func NewSet(constraints ...Constraint) (Set, error) {
	s := AnySet()
	seen := make(map[Key]bool, len(Keys))
	for _, c := range constraints {
		if !c.key.IsValid() {
			return Set{}, fmt.Errorf("unknown facet %q", c.key)
		}
		if seen[c.key] {
			return Set{}, fmt.Errorf("facet %q given more than once", c.key)
		}
		seen[c.key] = true
		switch c.key {
		case Partner:
			s.partner = c
		case Country:
			s.country = c
		case City:
			s.city = c
		}
	}
	return s, nil
}

// Get returns the constraint on facet k.
func (s Set) Get(k Key) Constraint {
	switch k {
	case Partner:
		return s.partner
	case Country:
		return s.country
	case City:
		return s.city
	default:
		return Constraint{key: k, value: Any}
	}
}

// Constraints returns the constraints in canonical facet order.
func (s Set) Constraints() []Constraint {
	return []Constraint{s.Get(Partner), s.Get(Country), s.Get(City)}
}

// IsEmpty reports whether no facet is constrained.
func (s Set) IsEmpty() bool {
	for _, c := range s.Constraints() {
		if c.value != "" && !c.IsAny() {
			return false
		}
	}
	return true
}

// Matches reports whether v satisfies every constraint (logical AND).
func (s Set) Matches(v Values) bool {
	for _, c := range s.Constraints() {
		if c.value == "" {
			continue
		}
		if !c.Matches(v) {
			return false
		}
	}
	return true
}
