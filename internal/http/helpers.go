package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"deductible/internal/core"
	"deductible/internal/log"
)

// parseYear reads the year query parameter, defaulting to the current year when absent.
func parseYear(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return time.Now().Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("%w: must be an integer between 1 and 9999", core.ErrInvalidYear)
	}
	return y, nil
}

// parseListFilter builds a listing filter from query parameters. Unparseable or
// out of range year and month values are dropped rather than rejected.
func parseListFilter(query url.Values) core.ListFilter {
	f := core.ListFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Query:    sanitizeInput(query.Get("q")),
	}

	f.TaxYear, _ = strconv.Atoi(strings.TrimSpace(query.Get("year")))
	f.Month, _ = strconv.Atoi(strings.TrimSpace(query.Get("month")))

	if errors.Is(f.Validate(), core.ErrInvalidMonth) {
		f.Month = 0
	}
	if errors.Is(f.Validate(), core.ErrInvalidYear) {
		f.TaxYear = 0
	}
	return f
}

// formFields flattens submitted form values into normalizer input. The last value
// of a key wins, so a checked checkbox overrides the hidden field placed before it.
func formFields(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		fields[k] = sanitizeInput(vs[len(vs)-1])
	}
	return fields
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// localReferer returns the path and query of a same-host Referer, or fallback.
func localReferer(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "JSON encoding failed", log.FieldError, err)
	}
}

// serverError logs err and replies with a bare 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, args ...any) {
	args = append([]any{log.FieldError, err}, args...)
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg, args...)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
