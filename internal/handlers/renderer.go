package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"path"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*
var templatesFS embed.FS

// Renderer handles template rendering. Each page is parsed together with the
// layout once, at startup.
type Renderer struct {
	pages  map[string]*template.Template
	logger *log.Logger
}

// ImageResolver turns TMDB poster and profile paths into full URLs
type ImageResolver interface {
	GetImageURL(path *string) string
}

// NewRenderer creates a new template renderer
func NewRenderer(images ImageResolver, logger *log.Logger) (*Renderer, error) {
	printer := message.NewPrinter(language.English)

	funcMap := template.FuncMap{
		"image": images.GetImageURL,
		"rating": func(r *float64) string {
			if r == nil {
				return "N/A"
			}
			return fmt.Sprintf("%.1f", *r)
		},
		"positive": func(r *float64) bool {
			return r != nil && *r > 0
		},
		"money": func(n *int64) string {
			if n == nil {
				return ""
			}
			return printer.Sprintf("$%d", *n)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	names, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		page := path.Base(name)
		if page == "layout.html" {
			continue
		}
		tmpl, err := template.New(page).Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		pages[page] = tmpl
	}

	return &Renderer{
		pages:  pages,
		logger: logger,
	}, nil
}

// Render renders a page template with data
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// RenderPage renders a page template and handles errors
func (r *Renderer) RenderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Printf("Failed to render template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
