package phone

import (
	"regexp"
	"strings"
)

const (
	// CountryCode is the canonical prefix of every normalized number.
	CountryCode = "+971"

	// LocalLength is the number of subscriber digits after the country code.
	LocalLength = 9
)

// Kind classifies a number by its leading local digit.
type Kind string

const (
	KindMobile   Kind = "mobile"
	KindLandline Kind = "landline"
)

var (
	canonicalPattern = regexp.MustCompile(`^\+971\d{9}$`)
	mobilePattern    = regexp.MustCompile(`^5[02345678]`)
	landlinePattern  = regexp.MustCompile(`^[234679]`)
)

// prefixes are tried in order; the first match is stripped.
// A literal "+971" never survives digitsOnly, so the "971" rule covers it.
var prefixes = []string{"00971", "971", "0"}

// LocalDigits returns the digits-only local part of raw, at most LocalLength long.
func LocalDigits(raw string) string {
	local := digitsOnly(raw)
	for _, p := range prefixes {
		if strings.HasPrefix(local, p) {
			local = local[len(p):]
			break
		}
	}
	if len(local) > LocalLength {
		local = local[:LocalLength]
	}
	return local
}

// Normalize converts free-text input into "+971" followed by up to 9 local digits.
// Input without any local digits yields "+971" alone.
func Normalize(raw string) string {
	return CountryCode + LocalDigits(raw)
}

// Validate reports whether candidate is a usable UAE number.
// It returns nil when valid, ErrRequired for empty input and ErrInvalidFormat otherwise.
func Validate(candidate string) error {
	if strings.TrimSpace(candidate) == "" {
		return ErrRequired
	}

	normalized := Normalize(candidate)
	if !canonicalPattern.MatchString(normalized) {
		return ErrInvalidFormat
	}

	if _, ok := classify(normalized[len(CountryCode):]); !ok {
		return ErrInvalidFormat
	}
	return nil
}

// IsValid is shorthand for Validate(s) == nil.
func IsValid(s string) bool {
	return Validate(s) == nil
}

// KindOf returns the number kind for a valid number.
func KindOf(s string) (Kind, bool) {
	if !IsValid(s) {
		return "", false
	}
	return classify(LocalDigits(s))
}

func classify(local string) (Kind, bool) {
	switch {
	case mobilePattern.MatchString(local):
		return KindMobile, true
	case landlinePattern.MatchString(local):
		return KindLandline, true
	}
	return "", false
}
