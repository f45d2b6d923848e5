// Package web renders the single Promptist page.
package web

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"deref": func(s *string) string { return *s },
}).ParseFS(templatesFS, "templates/index.html"))

// Page is the form state. A nil Output hides the result section; a non-nil
// empty Output still shows it.
type Page struct {
	Input  string
	Output *string
	Error  string
}

func Render(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}

// HTML adapts Render to gin's c.Render.
type HTML struct {
	Page Page
}

var _ render.Render = HTML{}

func (h HTML) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	return Render(w, h.Page)
}

func (h HTML) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
