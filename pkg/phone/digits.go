package phone

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDigits maps full-width, Arabic-Indic (U+0660..U+0669) and Extended
// Arabic-Indic (U+06F0..U+06F9) digits to ASCII before the digit filter runs.
var foldDigits = transform.Chain(
	norm.NFKC,
	runes.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}),
)

// digitsOnly returns the ASCII digits of s in order.
func digitsOnly(s string) string {
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(foldDigits, s)
	if err != nil {
		folded = s
	}

	out := make([]byte, 0, len(folded))
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		}
	}
	return string(out)
}
