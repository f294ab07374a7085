// Package views renders the HTML pages. Templates are embedded and parsed
// once; each page file is parsed into its own clone of the layout set.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/linarqa/linarqa-web/pkg/logger"
)

//go:embed templates
var files embed.FS

//go:embed static
var static embed.FS

type Renderer struct {
	pages map[string]*template.Template
	logg  *logger.Logger
}

func New(logg *logger.Logger) (*Renderer, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	base, err := template.New("base").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return &Renderer{pages: pages, logg: logg}, nil
}

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page *Page) {
	t, ok := r.pages[page.Name]
	if !ok {
		r.logg.Error(req.Context(), "views.unknown_page", fmt.Errorf("no template %q", page.Name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	root := "layout"
	if page.Bare {
		root = "bare"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, root, page); err != nil {
		r.logg.Error(r.logg.WithField(req.Context(), "page", page.Name), "views.render_failed", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logg.Warn(r.logg.WithField(req.Context(), "error", err.Error()), "views.write_failed")
	}
}
