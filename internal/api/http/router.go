package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/meli/auth-server/internal/api/http/handlers"
	"github.com/meli/auth-server/internal/auth"
	"github.com/meli/auth-server/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	LoginLimiter   *LoginLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.LoginLimiter.Handle, cfg.Auth.Login)
	authGroup.Post("/jwt", cfg.Auth.Validate)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
}
