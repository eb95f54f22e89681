package http

import (
	"context"
	"net/http"
	"time"

	"cafeledger/internal/log"
)

const readyTimeout = 3 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady runs every readiness check and answers 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			s.requestLogger(r).WarnContext(r.Context(), "Readiness check failed", "check", c.Name, log.FieldError, err)
			continue
		}
		results[c.Name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	lm := s.limiter.GetMetrics()
	body := map[string]any{
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"requests": map[string]any{
			"total":             tm.TotalRequests,
			"serverErrors":      tm.ServerErrors,
			"averageDurationUs": tm.AverageResponseTime,
		},
		"rateLimit": map[string]any{
			"rejected": lm.Rejected,
			"clients":  lm.ClientCount,
		},
		"suspiciousRequests": s.detector.SuspiciousRequests(),
	}
	if s.caches != nil {
		body["cacheEntries"] = s.caches.Entries()
	}
	writeJSON(w, http.StatusOK, body)
}
