package swr

// Key identifies a query. The zero Key is the disabled query.
type Key struct {
	family string
	id     string
}

// NewKey returns the key for a query family without an identifier.
func NewKey(family string) Key {
	return Key{family: family}
}

// With scopes k to an identifier. An empty id yields the zero (disabled) Key,
// so a query that depends on a missing selection never runs.
func (k Key) With(id string) Key {
	if id == "" || k.family == "" {
		return Key{}
	}
	return Key{family: k.family, id: id}
}

// IsZero reports whether k is the disabled query.
func (k Key) IsZero() bool {
	return k.family == ""
}

// Family returns the query family. It has bounded cardinality and is safe to
// use as a metrics label.
func (k Key) Family() string {
	return k.family
}

// ID returns the identifier part, if any.
func (k Key) ID() string {
	return k.id
}

// String returns the wire form of the key: the family, or family-id.
func (k Key) String() string {
	if k.id == "" {
		return k.family
	}
	return k.family + "-" + k.id
}
