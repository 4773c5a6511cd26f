package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/http/handlers"
	"github.com/connecta/citizen-service/internal/auth"
	"github.com/connecta/citizen-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Categories     *handlers.CategoriesHandler
	Services       *handlers.ServicesHandler
	Protocols      *handlers.ProtocolsHandler
	Communications *handlers.CommunicationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	users := api.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Get("", auth.RequireRole(domain.RoleManager), cfg.Users.List)
	users.Post("", auth.RequireRole(domain.RoleManager), cfg.Users.Create)

	categories := api.Group("/categories")
	categories.Get("", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Get("/:id/services", cfg.Categories.ListServices)
	categories.Post("", auth.RequireRole(domain.RoleManager), cfg.Categories.Create)
	categories.Put("/:id", auth.RequireRole(domain.RoleManager), cfg.Categories.Update)
	categories.Delete("/:id", auth.RequireRole(domain.RoleManager), cfg.Categories.Delete)

	services := api.Group("/services")
	services.Get("", cfg.Services.List)
	services.Get("/field-kinds", cfg.Services.FieldKinds)
	services.Get("/:id", cfg.Services.Get)
	services.Post("", auth.RequireRole(domain.RoleManager), cfg.Services.Create)
	services.Put("/:id", auth.RequireRole(domain.RoleManager), cfg.Services.Update)
	services.Delete("/:id", auth.RequireRole(domain.RoleManager), cfg.Services.Delete)

	protocols := api.Group("/protocols")
	protocols.Get("", cfg.Protocols.List)
	protocols.Get("/statistics", cfg.Protocols.Statistics)
	protocols.Get("/by-number", cfg.Protocols.GetByNumber)
	protocols.Get("/:id", cfg.Protocols.Get)
	protocols.Post("", cfg.Protocols.Create)
	protocols.Post("/:id/assign", auth.RequireRole(domain.RoleManager, domain.RoleAttendant), cfg.Protocols.Assign)
	protocols.Post("/:id/status", auth.RequireRole(domain.RoleManager, domain.RoleAttendant), cfg.Protocols.ChangeStatus)
	protocols.Post("/:id/priority", auth.RequireRole(domain.RoleManager, domain.RoleAttendant), cfg.Protocols.ChangePriority)
	protocols.Post("/:id/comments", auth.RequireRole(domain.RoleManager, domain.RoleAttendant), cfg.Protocols.AddComment)
	protocols.Post("/:id/finalize", auth.RequireRole(domain.RoleManager, domain.RoleAttendant), cfg.Protocols.Finalize)

	communications := api.Group("/communications", auth.RequireRole(domain.RoleManager))
	communications.Get("", cfg.Communications.List)
	communications.Get("/statistics", cfg.Communications.Statistics)
	communications.Get("/:id", cfg.Communications.Get)
	communications.Get("/:id/recipients", cfg.Communications.Recipients)
	communications.Post("", cfg.Communications.Create)
	communications.Put("/:id", cfg.Communications.Update)
	communications.Post("/:id/send", cfg.Communications.Send)
	communications.Post("/:id/cancel", cfg.Communications.Cancel)
	communications.Delete("/:id", cfg.Communications.Delete)
}
