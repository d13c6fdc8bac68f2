package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/content-gateway/internal/api/http/handlers"
	"github.com/spec-kit/content-gateway/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Content        *handlers.ContentHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires the origin-API routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)

	content := app.Group("/content")
	content.Get("/", cfg.Content.List)
	content.Get("/access/history", cfg.AuthMiddleware.Handle, cfg.Content.AccessHistory)
	content.Get("/:id", cfg.Content.Get)
	content.Post("/:id/access", cfg.AuthMiddleware.Handle, cfg.Content.RequestAccess)
}
