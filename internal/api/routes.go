package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes. health may be nil.
func SetupRoutes(h *Handlers, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/periods", h.GetPeriods)
			r.Get("/overview", h.GetOverview)
			r.Get("/customers", h.GetCustomerInsights)
		})

		r.Route("/segments", func(r chi.Router) {
			r.Get("/", h.ListSegments)
			r.Post("/", h.CreateSegment)
			r.Get("/options", h.GetSegmentOptions)
			r.Post("/preview", h.PreviewSegment)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSegment)
				r.Patch("/", h.UpdateSegment)
				r.Delete("/", h.DeleteSegment)
				r.Get("/members", h.ListSegmentMembers)
				r.Get("/export.csv", h.DownloadSegmentCSV)
				r.Get("/exports", h.ListSegmentExports)
				r.Post("/exports", h.ExportSegment)
			})
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Patch("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
			})
		})
	})

	return r
}
