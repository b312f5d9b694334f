// Package sanitizer turns untrusted markup into plain text.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func policy() *bluemonday.Policy {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// PlainText strips every tag, decodes entities and collapses runs of
// whitespace into single spaces. Product titles coming from WordPress and
// free-text form fields both pass through here.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(policy().Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// Multiline behaves like PlainText but keeps line breaks, trimming each line.
// Blank lines are collapsed to one.
func Multiline(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = PlainText(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
