package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"findash/internal/cache"
	"findash/internal/dashboard"
	"findash/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once an initial dataset is installed and the
// dataset store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.datasets.Ready() {
		checks["dataset"] = "ok"
	} else {
		checks["dataset"] = "failed: initial dataset not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.health == nil {
		checks["store"] = "ok"
	} else if err := s.health(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	var cacheStats cache.Stats
	for _, c := range s.controller.Caches() {
		if sc, ok := c.(interface{ Stats() cache.Stats }); ok {
			st := sc.Stats()
			cacheStats.Size += st.Size
			cacheStats.Hits += st.Hits
			cacheStats.Misses += st.Misses
		}
	}
	ds := s.controller.Dataset()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_ms Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_ms gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_ms %.3f\n\n", float64(traceMetrics.AverageResponseTime.Microseconds())/1000)

	fmt.Fprintf(w, "# HELP dataset_version Version of the active dataset\n")
	fmt.Fprintf(w, "# TYPE dataset_version gauge\n")
	fmt.Fprintf(w, "dataset_version %d\n\n", s.controller.Version())

	fmt.Fprintf(w, "# HELP dataset_rows Transactions in the active dataset\n")
	fmt.Fprintf(w, "# TYPE dataset_rows gauge\n")
	fmt.Fprintf(w, "dataset_rows %d\n\n", ds.Len())

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheStats.Hits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries %d\n\n", cacheStats.Size)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.securityDetector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

type indexPage struct {
	View    dashboard.View
	History []historyRow
	// Accept lists the upload types for the file input.
	Accept string
}

type historyRow struct {
	Name     string
	Source   string
	Rows     int
	LoadedAt time.Time
	Active   bool
}

const historyLimit = 5

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.requestLogger(ctx)

	page := indexPage{
		View:   s.controller.Current(),
		Accept: ".csv,.xlsx,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	metas, err := s.datasets.History(ctx, historyLimit)
	if err != nil {
		logger.WarnContext(ctx, "Dataset history unavailable", log.FieldError, err)
	}
	for _, m := range metas {
		page.History = append(page.History, historyRow{
			Name:     m.Name,
			Source:   m.Source,
			Rows:     m.Rows,
			LoadedAt: m.LoadedAt,
			Active:   m.ID != 0 && m.ID == page.View.Dataset.ID,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "could not render page", http.StatusInternalServerError)
	}
}
