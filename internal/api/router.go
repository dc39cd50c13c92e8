// Package api wires the HTTP surface of the audit service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/api/handlers"
	"github.com/webpulse/webpulse/internal/api/middleware"
	"github.com/webpulse/webpulse/internal/observability"
	rediscache "github.com/webpulse/webpulse/internal/repository/redis"
	"github.com/webpulse/webpulse/pkg/httputil"
)

// HealthChecker reports readiness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ReportStore combines the read and write sides of report persistence.
type ReportStore interface {
	handlers.ReportReader
	handlers.ReportWriter
}

// Router holds the HTTP router and its dependencies
type Router struct {
	chi.Router
	logger *zap.Logger
}

// RouterConfig contains configuration for the router
type RouterConfig struct {
	Auditor     handlers.AuditService
	Reports     ReportStore
	Comparisons handlers.ComparisonReader
	Pipeline    handlers.ComparisonStarter
	Cache       *rediscache.Cache
	Artifacts   handlers.ArtifactLinker
	Database    HealthChecker
	Logger      *zap.Logger
	EnableCORS  bool
	// AllowedOrigins scopes CORS when enabled; empty means any origin.
	AllowedOrigins []string
	RateLimit      int
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	r.Use(observability.GetMetrics().HTTPMiddleware)
	r.Use(chimw.Timeout(120 * time.Second))

	if cfg.EnableCORS {
		origins := cfg.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if cfg.Cache != nil && cfg.RateLimit > 0 {
		r.Use(middleware.NewRateLimitMiddleware(cfg.Cache, cfg.RateLimit, true).Handler)
	}

	r.Handle("/metrics", promhttp.Handler())

	analyzeHandler := handlers.NewAnalyzeHandler(cfg.Auditor, cfg.Reports, cfg.Logger)

	var reportCache handlers.ReportCache
	var statusCache handlers.StatusCache
	if cfg.Cache != nil {
		reportCache = cfg.Cache
		statusCache = cfg.Cache
	}
	reportHandler := handlers.NewReportHandler(cfg.Reports, reportCache, cfg.Artifacts, cfg.Logger)
	competitorHandler := handlers.NewCompetitorHandler(cfg.Pipeline, cfg.Reports, cfg.Comparisons, statusCache, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler)
		r.Get("/ready", readyHandler(cfg.Database, cfg.Cache))

		r.Post("/analyze", analyzeHandler.Analyze)
		r.Post("/analyze/{module}", analyzeHandler.AnalyzeModule)

		r.Route("/report", func(r chi.Router) {
			r.Get("/{id}", reportHandler.Get)
			r.Get("/{id}/{module}", reportHandler.GetModule)
		})

		r.Route("/competitor", func(r chi.Router) {
			r.Post("/analyze-3-1", competitorHandler.Start)
			r.Get("/comparison/{id}", competitorHandler.Get)
			r.Get("/comparison/{id}/status", competitorHandler.Status)
			r.Get("/by-report/{reportId}", competitorHandler.GetByReport)
		})
	})

	return &Router{
		Router: r,
		logger: cfg.Logger,
	}
}

// healthHandler returns basic health status
func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "webpulse-api",
	})
}

// readyHandler checks if all dependencies are ready
func readyHandler(database HealthChecker, cache *rediscache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		allHealthy := true

		if database != nil {
			if err := database.Health(r.Context()); err != nil {
				checks["database"] = "unhealthy: " + err.Error()
				allHealthy = false
			} else {
				checks["database"] = "healthy"
			}
		}

		if cache != nil {
			if err := cache.Health(r.Context()); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
				allHealthy = false
			} else {
				checks["redis"] = "healthy"
			}
		}

		status := http.StatusOK
		statusText := "ready"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		httputil.JSON(w, status, map[string]any{
			"status": statusText,
			"checks": checks,
		})
	}
}
