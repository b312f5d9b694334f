package forms

import "strings"

// Kind identifies a site form.
type Kind string

const (
	KindContact  Kind = "contact"
	KindCallback Kind = "callback"
	KindQuote    Kind = "quote"
	KindOrder    Kind = "order"
)

// Kinds lists every known form kind.
func Kinds() []Kind {
	return []Kind{KindContact, KindCallback, KindQuote, KindOrder}
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindContact, KindCallback, KindQuote, KindOrder:
		return k, nil
	}
	return "", ErrUnknownKind
}
