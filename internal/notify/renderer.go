package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Rendered is one rendered message.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns markdown templates into HTML mail bodies.
// Parsed templates are cached by name.
type Renderer struct {
	fs     fs.FS
	md     goldmark.Markdown
	parsed map[string]*parsedTemplate
	layout *template.Template
	mu     sync.RWMutex
}

type parsedTemplate struct {
	subject *texttemplate.Template
	body    *texttemplate.Template
}

// templateFuncs are available to subjects and bodies.
var templateFuncs = texttemplate.FuncMap{
	"default": func(fallback, v string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	},
	"upper": strings.ToUpper,
}

// NewRenderer creates a renderer over filesystem. Templates live at the root
// as "<name>.md"; the layout at "layouts/base.html".
func NewRenderer(filesystem fs.FS) (*Renderer, error) {
	raw, err := fs.ReadFile(filesystem, "layouts/base.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayoutNotFound, err)
	}
	layout, err := template.New("base.html").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: layout: %v", ErrRenderFailed, err)
	}

	return &Renderer{
		fs:     filesystem,
		md:     goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify)),
		parsed: make(map[string]*parsedTemplate),
		layout: layout,
	}, nil
}

// Render executes template name with data.
func (r *Renderer) Render(name string, data any) (*Rendered, error) {
	pt, err := r.template(name)
	if err != nil {
		return nil, err
	}

	var subject bytes.Buffer
	if err := pt.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, name, err)
	}

	var text bytes.Buffer
	if err := pt.body.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", ErrRenderFailed, name, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(text.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: %s markdown: %v", ErrRenderFailed, name, err)
	}

	var html bytes.Buffer
	if err := r.layout.Execute(&html, map[string]any{
		"Subject": subject.String(),
		"Content": template.HTML(content.String()),
	}); err != nil {
		return nil, fmt.Errorf("%w: layout: %v", ErrRenderFailed, err)
	}

	return &Rendered{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.RLock()
	pt, ok := r.parsed[name]
	r.mu.RUnlock()
	if ok {
		return pt, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if pt, ok := r.parsed[name]; ok {
		return pt, nil
	}

	content, err := fs.ReadFile(r.fs, path.Clean(name)+".md")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	tmpl, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	subject, err := texttemplate.New(name + ".subject").Funcs(templateFuncs).Parse(tmpl.Subject())
	if err != nil {
		return nil, fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, name, err)
	}
	body, err := texttemplate.New(name).Funcs(templateFuncs).Parse(tmpl.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", ErrRenderFailed, name, err)
	}

	pt = &parsedTemplate{subject: subject, body: body}
	r.parsed[name] = pt
	return pt, nil
}
