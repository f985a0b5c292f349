package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/api/http/handlers"
	"github.com/spec-kit/project-planner/internal/auth"
)

// BasePath prefixes every route.
const BasePath = "/api/project-planner"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Projects      *handlers.ProjectsHandler
	Milestones    *handlers.MilestonesHandler
	SessionFilter *auth.SessionFilter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group(BasePath, cfg.SessionFilter.Handle)

	api.Get("/health/live", cfg.Health.Live)
	api.Get("/health/ready", cfg.Health.Ready)

	authGroup := api.Group("/auth")
	authGroup.Post("/access_token", cfg.Auth.Login)
	authGroup.Get("/me", auth.RequireAuthenticated(), cfg.Auth.Me)

	users := api.Group("/user", auth.RequireAdmin())
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Get("/:loginName", cfg.Users.Get)
	users.Put("/:loginName", cfg.Users.Update)

	projects := api.Group("/project")
	projects.Get("", auth.RequireAuthenticated(), cfg.Projects.List)
	projects.Post("", auth.RequireAdmin(), cfg.Projects.Create)
	projects.Get("/:title", auth.RequireAuthenticated(), cfg.Projects.Get)
	projects.Put("/:title/archive", auth.RequireAdmin(), cfg.Projects.Archive)
	projects.Put("/:title/restore", auth.RequireAdmin(), cfg.Projects.Restore)
	projects.Put("/:title", auth.RequireAdmin(), cfg.Projects.Update)

	milestones := api.Group("/milestone")
	milestones.Get("/:projectTitle", auth.RequireAuthenticated(), cfg.Milestones.List)
	milestones.Post("", auth.RequireAdmin(), cfg.Milestones.Create)
	milestones.Put("/:id", auth.RequireAdmin(), cfg.Milestones.Update)
	milestones.Delete("/:id", auth.RequireAdmin(), cfg.Milestones.Delete)
}
