package http

import (
	"bytes"
	"html/template"
	"net/http"

	"deductible/internal/core"
	"deductible/internal/log"
	appweb "deductible/web"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var templateFuncs = template.FuncMap{
	"dollars": core.FormatDollars,
	"num":     core.FormatFloat,
	"months":  func() []string { return monthNames },
	"add":     func(a, b int) int { return a + b },
	"selected": func(a, b string) bool {
		return a == b
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// page carries the fields every template reads.
type page struct {
	Title         string
	Active        string
	Flashes       []string
	Authenticated bool
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title, active string) page {
	return page{
		Title:         title,
		Active:        active,
		Flashes:       popFlashes(w, r),
		Authenticated: s.auth.SessionFromRequest(r).Authenticated,
	}
}

// render executes a template into a buffer so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentTemplate)

	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
