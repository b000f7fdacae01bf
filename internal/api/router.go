package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.metricsMiddleware)

	// Service identity
	r.Get("/", s.handleRoot)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required; never touches upstream)
		r.Get("/health", s.handleHealth)

		// Prometheus exposition (no auth required for scraping)
		r.Handle("/metrics", promhttp.Handler())

		// Auth endpoint (no auth required)
		r.Post("/auth/token", s.handleToken)

		// Protected routes: every other endpoint requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/token-info", s.handleTokenInfo)

			r.Route("/locations", func(r chi.Router) {
				r.Get("/list", s.handleListLocations)
				r.Get("/summary", s.handleLocationSummary)
				r.Get("/data", s.handleHistoricalData)
				r.Get("/live", s.handleLiveData)
				r.Get("/alarms/list", s.handleListAlarms)
				r.Get("/alerts/list", s.handleListAlerts)
				r.Get("/{id}", s.handleGetLocation)
			})

			r.Get("/audit/list", s.handleListAuditLog)
		})
	})

	return r
}

// handleRoot returns the service identity.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "smartcover-proxy",
		"version": s.version,
		"health":  "/api/v1/health",
	})
}

// handleHealth returns the server health status. It must not depend on the
// upstream: the proxy is alive even when SmartCover is down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}
