package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"deductible/internal/core"
	"deductible/internal/log"
	"deductible/internal/services"
)

const (
	msgExpenseAdded = "Expense added."
	msgDeleted      = "Deleted."
)

type expensesPage struct {
	page
	Filter     core.ListFilter
	Expenses   []core.Expense
	Categories []string
	Today      string
	ExportURL  string
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r.URL.Query())

	rows, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, "Listing expenses failed", err)
		return
	}

	exportURL := "/export.csv"
	if r.URL.RawQuery != "" {
		exportURL += "?" + r.URL.RawQuery
	}

	s.render(w, r, http.StatusOK, "expenses.html", expensesPage{
		page:       s.newPage(w, r, "Expenses", "expenses"),
		Filter:     filter,
		Expenses:   rows,
		Categories: core.Categories,
		Today:      core.Today().String(),
		ExportURL:  exportURL,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var upload *services.Upload
	if file, header, err := r.FormFile("receipt"); err == nil {
		defer file.Close()
		if header.Filename != "" {
			upload = &services.Upload{Filename: header.Filename, Content: file}
		}
	}

	if _, err := s.svc.Create(r.Context(), formFields(r.PostForm), upload); err != nil {
		s.serverError(w, r, "Creating expense failed", err, log.FieldOperation, log.OpCreate)
		return
	}

	setFlash(w, msgExpenseAdded)
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.serverError(w, r, "Deleting expense failed", err, log.FieldExpenseID, id)
		return
	}

	setFlash(w, msgDeleted)
	http.Redirect(w, r, localReferer(r, "/expenses"), http.StatusFound)
}
