package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"deputados/internal/camara"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks that the upstream API answers, using the memoized vote
// listing so probes add little load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if _, err := s.passthrough(ctx, camara.VotesRequest(), true); err != nil {
		checks["upstream"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["upstream"] = "ok"
	}

	stats := s.listingStats()
	checks["cache"] = map[string]any{
		"entries": s.listings.Size(),
		"hits":    stats.Hits,
		"misses":  stats.Misses,
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.traceMiddleware.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	cacheStats := s.listingStats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_ms", "Average request duration in milliseconds", "gauge", traceMetrics.AverageResponseTime.Milliseconds())
	metric("rate_limit_rejected_total", "Requests rejected by the rate limiter", "counter", rateMetrics.Rejected)
	metric("rate_limit_clients", "Clients tracked by the rate limiter", "gauge", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "Requests flagged as suspicious", "counter", securityMetrics.SuspiciousRequests)
	metric("listing_cache_hits_total", "Listing cache hits", "counter", cacheStats.Hits)
	metric("listing_cache_misses_total", "Listing cache misses", "counter", cacheStats.Misses)
	metric("listing_cache_entries", "Entries in the listing cache", "gauge", s.listings.Size())
	metric("uptime_seconds", "Seconds since the server started", "gauge", int64(time.Since(s.startedAt).Seconds()))
}
