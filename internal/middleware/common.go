package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins is the comma separated CORS origin list. Empty allows all.
	AllowOrigins string
	// EnableStackTrace prints recovered panic stacks, meant for development.
	EnableStackTrace bool
}

// accessLogFormat ties each access line to the evaluation logs through the
// echoed correlation header.
const accessLogFormat = "${time} ${status} ${method} ${path} ${latency} ${respHeader:" + observability.CorrelationHeader + "}\n"

// Register attaches the common middlewares used across the API.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.EnableStackTrace}))
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(logger.New(logger.Config{Format: accessLogFormat}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + observability.CorrelationHeader + ", " + fiber.HeaderXRequestID,
		AllowMethods:  "GET,POST,OPTIONS",
		ExposeHeaders: observability.CorrelationHeader + ", " + observability.EvaluationCacheHeader,
	}))
}
