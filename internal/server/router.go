package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerpane/ledgerpane/internal/auth"
	"github.com/ledgerpane/ledgerpane/internal/handlers"
	"github.com/ledgerpane/ledgerpane/internal/middleware"
)

// RouterConfig holds dependencies needed to configure routes.
type RouterConfig struct {
	Handler        *handlers.Handler
	AuthMiddleware *auth.Middleware
	AllowedOrigins []string
}

// NewRouter constructs a ServeMux with the feed API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.AuthMiddleware == nil {
			return h
		}
		return cfg.AuthMiddleware.Protect(h)
	}

	// Feed endpoints
	mux.Handle("GET /api/events", protect(cfg.Handler.ListEvents))
	mux.Handle("GET /api/events/stream", protect(cfg.Handler.StreamEvents))

	// Subscription settings endpoints
	mux.Handle("GET /api/subscriptions", protect(cfg.Handler.ListSubscriptions))
	mux.Handle("POST /api/subscriptions", protect(cfg.Handler.CreateSubscription))
	mux.Handle("DELETE /api/subscriptions/{id}", protect(cfg.Handler.DeleteSubscription))

	// Tenant feed statistics
	mux.Handle("GET /api/stats/tenants/{id}", protect(cfg.Handler.TenantStats))

	// Unauthenticated plumbing
	mux.HandleFunc("GET /api/health", cfg.Handler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Last-Event-ID", "X-Request-ID"},
		AllowCredentials: true,
	})
	return middleware.RequestID(cors(mux))
}
