package http

import (
	"net/http"
	"time"

	"deductible/internal/core"
	"deductible/internal/log"
)

type reportPage struct {
	page
	Year    int
	Summary core.YearSummary
}

type chartsPage struct {
	page
	Year int
}

type totalsResponse struct {
	Year       int                `json:"year"`
	GrandTotal float64            `json:"grand_total"`
	ByCategory map[string]float64 `json:"by_category"`
}

type monthlyResponse struct {
	Year   int       `json:"year"`
	Series []float64 `json:"series"`
}

// pageYear is the year an HTML page reports on; bad input falls back to the current year.
func pageYear(r *http.Request) int {
	y, err := parseYear(r.URL.Query())
	if err != nil {
		return time.Now().Year()
	}
	return y
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	year := pageYear(r)

	summary, err := s.svc.Summary(r.Context(), year, true)
	if err != nil {
		s.serverError(w, r, "Summary failed", err, log.FieldYear, year)
		return
	}

	s.render(w, r, http.StatusOK, "report.html", reportPage{
		page:    s.newPage(w, r, "Tax year summary", "report"),
		Year:    year,
		Summary: summary,
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "charts.html", chartsPage{
		page: s.newPage(w, r, "Charts", "charts"),
		Year: pageYear(r),
	})
}

func (s *Server) handleAPITotals(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query())
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := s.svc.Summary(r.Context(), year, true)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Totals query failed",
			log.FieldError, err, log.FieldYear, year)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, r, http.StatusOK, totalsResponse{
		Year:       year,
		GrandTotal: core.RoundCents(summary.GrandTotal),
		ByCategory: summary.Rounded(),
	})
}

func (s *Server) handleAPIMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query())
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	series, err := s.svc.Monthly(r.Context(), year)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Monthly query failed",
			log.FieldError, err, log.FieldYear, year)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, r, http.StatusOK, monthlyResponse{Year: year, Series: series.Rounded()})
}
