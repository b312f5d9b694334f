package notify

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template is a parsed template file.
type Template struct {
	Metadata map[string]any
	Body     string
}

var delimiter = []byte("---")

// ParseTemplate splits content into YAML front matter and markdown body.
// Content without a leading delimiter is all body.
func ParseTemplate(content []byte) (*Template, error) {
	if !bytes.HasPrefix(content, delimiter) {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, delimiter), "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	body := rest[end+len(delimiter):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	meta := map[string]any{}
	if front := bytes.TrimSpace(rest[:end]); len(front) > 0 {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &Template{Metadata: meta, Body: string(body)}, nil
}

// Subject returns the Subject front matter value, if any.
func (t *Template) Subject() string {
	s, _ := t.Metadata["Subject"].(string)
	return s
}
