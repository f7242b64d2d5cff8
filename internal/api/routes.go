package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Prometheus scrape endpoint, unauthenticated
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/orders", h.UpsertOrder)
			r.Post("/orders/{id}/status", h.UpdateOrderStatus)
			r.Post("/runs", h.UpsertRun)
			r.Post("/runs/{id}/status", h.UpdateRunStatus)
			r.Post("/motorcycles", h.UpsertMotorcycle)
		})
	})

	return r
}
