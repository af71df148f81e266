package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/config"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/handler"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/middleware"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	RunHandler        *handler.RunHandler
	ReportHandler     *handler.ReportHandler
	ProfileHandler    *handler.ProfileHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		authoring := api.Group("/assignments", jwtMiddleware,
			middleware.RequireRole(models.RoleTeacher, models.RoleHOD))
		deps.AssignmentHandler.RegisterAuthoring(authoring)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.RunHandler != nil {
		// Code execution is the expensive path; keep one student from
		// monopolising the backend.
		runs := api.Group("/runs", jwtMiddleware, middleware.RateLimit("runs", 10, time.Minute))
		deps.RunHandler.Register(runs)
	}

	if deps.ProfileHandler != nil {
		profile := api.Group("/profile", jwtMiddleware)
		deps.ProfileHandler.Register(profile)
	}

	if deps.ReportHandler != nil {
		reports := api.Group("/reports", jwtMiddleware,
			middleware.RequireRole(models.RoleTeacher, models.RoleHOD))
		deps.ReportHandler.Register(reports)
	}
}
