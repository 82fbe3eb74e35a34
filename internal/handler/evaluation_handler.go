package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/dto"
	"github.com/noah-isme/gema-answer-eval/internal/evaluation"
	"github.com/noah-isme/gema-answer-eval/internal/observability"
	"github.com/noah-isme/gema-answer-eval/internal/service"
	"github.com/noah-isme/gema-answer-eval/internal/utils"
)

// EvaluationHandler exposes the answer evaluation endpoint.
type EvaluationHandler struct {
	service service.AnswerEvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.AnswerEvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/analyze-answer", h.analyze)
}

func (h *EvaluationHandler) analyze(c *fiber.Ctx) error {
	var payload dto.AnalyzeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("rejecting unparseable evaluation payload")
		return utils.SendResult(c, fiber.StatusBadRequest, invalidBodyResponse())
	}

	response := h.service.Analyze(c.UserContext(), payload)
	if response.Success {
		c.Set(observability.EvaluationCacheHeader, cacheOutcome(response.Cached))
	}
	return utils.SendResult(c, h.statusFor(response), response)
}

func (h *EvaluationHandler) statusFor(response dto.AnalyzeAnswerResponse) int {
	if response.Success {
		return fiber.StatusOK
	}

	switch {
	case errors.Is(response.Err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(response.Err, evaluation.ErrEmptyInput), errors.Is(response.Err, evaluation.ErrOCRFailure):
		return fiber.StatusUnprocessableEntity
	case errors.Is(response.Err, evaluation.ErrEngineUnavailable), errors.Is(response.Err, evaluation.ErrEmptyResponse):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func cacheOutcome(cached bool) string {
	if cached {
		return "hit"
	}
	return "miss"
}

func invalidBodyResponse() dto.AnalyzeAnswerResponse {
	return dto.NewAnalyzeAnswerResponse(evaluation.Result{
		Success:   false,
		Error:     "invalid request body",
		Timestamp: time.Now(),
	})
}
