package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer serves the embedded page templates through echo's Renderer
// interface. Templates are parsed once at startup; a parse failure is a
// programming error and panics there rather than at request time.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render executes the named page template.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
