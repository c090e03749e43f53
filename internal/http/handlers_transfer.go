package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"deductible/internal/log"
	"deductible/internal/transfer"
)

const msgNotCSV = "Please upload a CSV file."

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r.URL.Query())

	// Buffer so a failed query still yields a proper 500 instead of a truncated file.
	var buf bytes.Buffer
	n, err := s.svc.Export(r.Context(), &buf, filter)
	if err != nil {
		s.serverError(w, r, "Export failed", err, log.FieldOperation, log.OpExport)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Export written", log.FieldRows, n)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.ExportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "import.html", struct {
		page
		Header string
	}{
		page:   s.newPage(w, r, "Import", "import"),
		Header: strings.Join(transfer.Header, ","),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("csv")
	if err == nil {
		if err = transfer.CheckFilename(header.Filename); err != nil {
			file.Close()
		}
	}
	if err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Import upload rejected",
			log.FieldOperation, log.OpImport, log.FieldError, err)
		setFlash(w, msgNotCSV)
		http.Redirect(w, r, "/import", http.StatusFound)
		return
	}
	defer file.Close()

	n, err := s.svc.Import(r.Context(), file)
	if err != nil {
		s.serverError(w, r, "Import failed", err, log.FieldFilename, header.Filename)
		return
	}

	setFlash(w, fmt.Sprintf("Imported %d rows.", n))
	http.Redirect(w, r, "/expenses", http.StatusFound)
}
