package formwizard

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-formwizard/pkg/render/template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the built-in layout, step, confirm and fallback
// templates so callers can extend them.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// NewRenderer returns a template engine that looks templates up in dir first
// and falls back to the embedded ones. An empty dir uses only the embedded
// templates.
func NewRenderer(dir string, opts ...template.Option) (*template.Engine, error) {
	base := []template.Option{template.WithFS(EmbeddedTemplates())}
	if dir != "" {
		base = append(base, template.WithBaseDir(dir))
	}
	return template.New(append(base, opts...)...)
}
