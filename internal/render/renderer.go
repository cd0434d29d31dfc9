package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

// Template names shipped with the default renderer.
const (
	AgendaTemplate  = "agenda"
	PreviewTemplate = "preview"
	EventTemplate   = "event"
)

var ErrTemplateNotFound = errors.New("render: template not found")

//go:embed templates/*.html
var defaultTemplates embed.FS

// Renderer renders the agenda fragments with html/template.
type Renderer struct {
	templates *template.Template
}

var _ interfaces.TemplateRenderer = (*Renderer)(nil)

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("openagenda").Funcs(funcs()).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// MustNew is New for package-level wiring.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes name with data. The output is returned and also written to
// every supplied writer.
func (r *Renderer) Render(name string, data any, out ...io.Writer) (string, error) {
	tmpl := r.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute %s: %w", name, err)
	}
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"pages": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
		"inc": func(i int) int { return i + 1 },
		"pageQuery": func(values url.Values, page int) string {
			query := url.Values{}
			for key, entries := range values {
				query[key] = entries
			}
			query.Set("page", strconv.Itoa(page))
			return "?" + query.Encode()
		},
	}
}
