package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authhub/authhub/internal/service"
	"github.com/authhub/authhub/pkg/health"
	"github.com/authhub/authhub/pkg/middleware"
)

// RouterConfig carries the cross-cutting dependencies of the HTTP surface.
type RouterConfig struct {
	AuthService       *service.AuthService
	PermissionService *service.PermissionService
	TenantService     *service.TenantService
	ServiceToken      string
	HealthHandler     *health.Handler
	Logger            *slog.Logger
	CORS              middleware.CORSConfig
	TracingEnabled    bool
}

// NewRouter creates a chi router with all auth hub routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("authhub"))
	if cfg.TracingEnabled {
		r.Use(middleware.Tracing("authhub"))
	}
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health and metrics endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token lifecycle endpoints (public)
	authHandler := NewAuthHandler(cfg.AuthService, cfg.PermissionService, cfg.Logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/login", authHandler.Login)
		r.With(ContentTypeJSON).Post("/refresh", authHandler.Refresh)
		r.With(ContentTypeJSON).Post("/logout", authHandler.Logout)

		r.With(middleware.Auth(cfg.AuthService.ValidateAccess)).Get("/me/grants", authHandler.MyGrants)
	})

	// Service-to-service endpoints, guarded by the shared service token.
	internalHandler := NewInternalHandler(cfg.PermissionService, cfg.TenantService, cfg.Logger)
	r.Route("/api/v1/internal", func(r chi.Router) {
		r.Use(middleware.ServiceToken(cfg.ServiceToken))

		r.With(ContentTypeJSON).Post("/endpoints/sync", internalHandler.SyncEndpoints)
		r.With(ContentTypeJSON).Post("/onboarding", internalHandler.Onboard)

		r.Get("/permissions", internalHandler.PermissionMap)
		r.Get("/permissions/resolve", internalHandler.ResolveSpec)
		r.Get("/users/{userId}/grants", internalHandler.UserGrants)
		r.Get("/tenants/{tenantId}/config", internalHandler.TenantConfig)

		r.Delete("/endpoint-permissions/{id}", internalHandler.DeleteEndpoint)
		r.Post("/endpoint-permissions/{id}/restore", internalHandler.RestoreEndpoint)
	})

	return r
}
