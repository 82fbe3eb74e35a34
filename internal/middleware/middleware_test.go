package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

func TestCorrelationIDPrefersIncomingHeaders(t *testing.T) {
	var seen string
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = observability.CorrelationIDFromContext(c.UserContext())
		require.Equal(t, seen, RequestCorrelationID(c))
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-42", resp.Header.Get("X-Correlation-ID"))
	require.Equal(t, "req-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	req.Header.Set("X-Request-ID", "req-42")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "corr-1", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Len(t, resp.Header.Get("X-Correlation-ID"), 36)
}

func TestRegisterAppliesConfiguredOrigins(t *testing.T) {
	logger := zerolog.Nop()
	app := fiber.New()
	Register(app, Config{Logger: &logger, AllowOrigins: "https://gema.example"})
	app.Post("/api/analyze-answer", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-answer", nil)
	req.Header.Set("Origin", "https://gema.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "https://gema.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/analyze-answer", nil)
	req.Header.Set("Origin", "https://gema.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), observability.EvaluationCacheHeader)
	require.NotEmpty(t, resp.Header.Get(observability.CorrelationHeader))
}

func TestRegisterRecoversPanics(t *testing.T) {
	app := fiber.New()
	Register(app, Config{})
	app.Get("/api/boom", func(c *fiber.Ctx) error { panic("handler fault") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestObservabilityLogsAPIRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Observability(logger))
	app.Post("/api/analyze-answer", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/analyze-answer", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	require.Contains(t, buf.String(), `"route":"/api/analyze-answer"`)
	require.Contains(t, buf.String(), `"level":"error"`)

	buf.Reset()
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Empty(t, buf.String())
}
