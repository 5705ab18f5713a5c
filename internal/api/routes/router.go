package routes

import (
	"net/http"

	"github.com/healthassist/backend/internal/api/handlers"
	"github.com/healthassist/backend/internal/api/middleware"
	"github.com/healthassist/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	providerSearchHandler *handlers.ProviderSearchHandler
	analyticsHandler      *handlers.AnalyticsHandler
	healthHandler         *handlers.HealthHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. analyticsHandler may be nil when analytics is disabled.
func NewRouter(
	providerSearchHandler *handlers.ProviderSearchHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		providerSearchHandler: providerSearchHandler,
		analyticsHandler:      analyticsHandler,
		healthHandler:         healthHandler,
		allowedOrigins:        allowedOrigins,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	r.mux.HandleFunc("POST /api/clinic-finder/find-doctor/{$}", r.providerSearchHandler.FindDoctor)
	r.mux.HandleFunc("POST /api/clinic-finder/find-doctor", r.providerSearchHandler.FindDoctor)
	r.mux.HandleFunc("GET /api/providers/nearby", r.providerSearchHandler.NearbyProviders)

	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.analyticsHandler.GetZeroResultQueries)
	}

	// Outermost first: request id, logging, tracing, CORS, compression.
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}
