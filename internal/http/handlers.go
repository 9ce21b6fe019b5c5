package http

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, NewJSONResponse().
		Field("status", "ok").
		Field("timestamp", s.now().UTC().Format(time.RFC3339)).
		Field("uptime", time.Since(s.started).Round(time.Second).String()))
}

// handleReady runs every readiness check under one deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	s.respond(w, r, NewJSONResponse().
		Status(httpStatus).
		Field("status", status).
		Field("timestamp", s.now().UTC().Format(time.RFC3339)).
		Field("checks", checks))
}

// handleMetrics reports request, rate limiting and security counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, NewJSONResponse().
		Field("uptime_seconds", int64(time.Since(s.started).Seconds())).
		Field("requests", s.tracer.GetMetrics()).
		Field("rate_limit", s.rateLimiter.GetMetrics()).
		Field("security", s.detector.GetMetrics()))
}
