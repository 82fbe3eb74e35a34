package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-answer-eval/internal/config"
	"github.com/noah-isme/gema-answer-eval/internal/handler"
	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", handler.HealthCheck(cfg))

	// The analyze route keeps the unversioned path existing clients post to.
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(app.Group("/api"))
	}
}
