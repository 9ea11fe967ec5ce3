package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classdesk/classdesk-api/internal/config"
	"github.com/classdesk/classdesk-api/internal/handler"
	"github.com/classdesk/classdesk-api/internal/middleware"
	"github.com/classdesk/classdesk-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ViewHandler     *handler.AssignmentViewHandler
	RosterHandler   *handler.RosterHandler
	ContentHandler  *handler.ContentHandler
	ReviewHandler   *handler.ReviewHandler
	BillingHandler  *handler.BillingHandler
	ActivityHandler *handler.ActivityHandler
	EventsHandler   *handler.EventsHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
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

	teacher := app.Group("/api/v2/teacher", jwtMiddleware, middleware.RequireTeacher())

	// Assignment view scope: resolution, stepper, roster and content
	// mutations, grading.
	if deps.ViewHandler != nil {
		assignment := teacher.Group("/classrooms/:classroomID/assignments/:assignmentID")
		deps.ViewHandler.Register(assignment)

		mutationLimit := middleware.RateLimit("assignment-mutation", 30, time.Minute)
		if deps.RosterHandler != nil {
			deps.RosterHandler.Register(assignment.Group("", mutationLimit))
		}
		if deps.ContentHandler != nil {
			deps.ContentHandler.Register(assignment.Group("", mutationLimit))
		}
		if deps.ReviewHandler != nil {
			deps.ReviewHandler.Register(assignment.Group("", mutationLimit))
		}
	}

	if deps.BillingHandler != nil {
		deps.BillingHandler.Register(teacher.Group("/billing"))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(teacher.Group("/activity"))
	}

	if deps.EventsHandler != nil {
		deps.EventsHandler.Register(app.Group("/ws", jwtMiddleware))
	}
}
