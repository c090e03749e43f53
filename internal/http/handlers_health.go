package http

import (
	"context"
	"net/http"
	"time"

	"deductible/internal/log"
)

type healthResponse struct {
	Status             string  `json:"status"`
	Uptime             string  `json:"uptime"`
	TotalRequests      int64   `json:"total_requests"`
	AvgResponseTimeMs  float64 `json:"avg_response_time_ms"`
	SuspiciousRequests int64   `json:"suspicious_requests"`
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:             "ok",
		Uptime:             time.Since(s.started).Round(time.Second).String(),
		TotalRequests:      m.TotalRequests,
		AvgResponseTimeMs:  float64(m.AverageResponseTime) / 1000,
		SuspiciousRequests: s.detector.SuspiciousCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok", "database": "ok"}
	status := http.StatusOK

	if s.templates == nil {
		checks["templates"] = "not loaded"
		status = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	resp := readyResponse{Status: "ready", Checks: checks}
	if status != http.StatusOK {
		resp.Status = "not ready"
	}
	writeJSON(w, r, status, resp)
}
