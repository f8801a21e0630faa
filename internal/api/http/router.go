package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grant-service/internal/api/http/handlers"
	"github.com/spec-kit/grant-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Applications   *handlers.ApplicationsHandler
	Users          *handlers.UsersHandler
	Sessions       *handlers.SessionHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	session := app.Group("/session")
	session.Post("/login", cfg.Sessions.Login)
	session.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Sessions.Logout)
	session.Get("/me", cfg.AuthMiddleware.Handle, cfg.Sessions.Me)

	apps := app.Group("/applications", cfg.AuthMiddleware.Handle)
	apps.Get("/", auth.RequirePermission(auth.OpViewApplications), cfg.Applications.List)
	apps.Post("/", auth.RequirePermission(auth.OpSubmitApplication), cfg.Applications.Submit)
	apps.Get("/:id", auth.RequirePermission(auth.OpViewApplications), cfg.Applications.Get)
	apps.Get("/:id/history", auth.RequirePermission(auth.OpViewApplications), cfg.Applications.History)
	apps.Put("/:id/assessment", auth.RequirePermission(auth.OpRecordAssessment), cfg.Applications.RecordAssessment)
	apps.Put("/:id/dean-recommendation", auth.RequirePermission(auth.OpRecordDeanRecommendation), cfg.Applications.RecordDeanRecommendation)
	apps.Put("/:id/final-decision", auth.RequirePermission(auth.OpRecordFinalDecision), cfg.Applications.RecordFinalDecision)
	apps.Post("/:id/comments", auth.RequirePermission(auth.OpAddComment), cfg.Applications.AddComment)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequirePermission(auth.OpViewUsers), cfg.Users.List)
	users.Get("/:id", auth.RequirePermission(auth.OpViewUsers), cfg.Users.Get)
	users.Post("/", auth.RequirePermission(auth.OpManageUsers), cfg.Users.Create)
	users.Patch("/:id", auth.RequirePermission(auth.OpManageUsers), cfg.Users.Update)
	users.Delete("/:id", auth.RequirePermission(auth.OpManageUsers), cfg.Users.Delete)
}
