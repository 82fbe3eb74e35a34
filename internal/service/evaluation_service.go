package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/dto"
	"github.com/noah-isme/gema-answer-eval/internal/evaluation"
	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

// AnswerEvaluationService exposes answer evaluation.
type AnswerEvaluationService interface {
	Analyze(ctx context.Context, payload dto.AnalyzeAnswerRequest) dto.AnalyzeAnswerResponse
}

// ErrInvalidRequest indicates the payload failed validation.
var ErrInvalidRequest = errors.New("invalid evaluation request")

// EvaluationRunner executes a single pipeline run. *evaluation.Pipeline satisfies it.
type EvaluationRunner interface {
	Run(ctx context.Context, req evaluation.Request) evaluation.Result
}

// EventPublisher is the subset of *nats.Conn used to announce completed evaluations.
type EventPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// EvaluationServiceConfig holds the retry and event knobs.
type EvaluationServiceConfig struct {
	MaxAttempts  int
	Backoff      time.Duration
	EventSubject string
}

type answerEvaluationService struct {
	pipeline  EvaluationRunner
	publisher EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	config    EvaluationServiceConfig
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewAnswerEvaluationService constructs the evaluation service. publisher may be nil.
func NewAnswerEvaluationService(pipeline EvaluationRunner, publisher EventPublisher, validate *validator.Validate, logger zerolog.Logger, cfg EvaluationServiceConfig) AnswerEvaluationService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.EventSubject == "" {
		cfg.EventSubject = "evaluation.completed"
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &answerEvaluationService{
		pipeline:  pipeline,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "answer_evaluation_service").Logger(),
		config:    cfg,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func (s *answerEvaluationService) Analyze(ctx context.Context, payload dto.AnalyzeAnswerRequest) dto.AnalyzeAnswerResponse {
	start := s.now()
	payload = payload.Normalize()
	correlationID := observability.CorrelationIDFromContext(ctx)

	if err := s.validator.Struct(payload); err != nil {
		response := s.invalid(err)
		s.finish(correlationID, payload, response, 0, start)
		return response
	}

	req := payload.EvaluationRequest()
	var result evaluation.Result
	attempts := 0
	for attempts < s.config.MaxAttempts {
		attempts++
		result = s.pipeline.Run(ctx, req)
		if result.Success || result.Failure == nil || !evaluation.Retryable(result.Failure.Err) {
			break
		}
		if attempts == s.config.MaxAttempts {
			break
		}

		wait := s.config.Backoff * time.Duration(attempts)
		s.logger.Warn().
			Str("correlation_id", correlationID).
			Str("stage", string(result.Failure.Stage)).
			Err(result.Failure.Err).
			Int("attempt", attempts).
			Dur("backoff", wait).
			Msg("retrying evaluation")
		if err := s.sleep(ctx, wait); err != nil {
			break
		}
		observability.EvaluationRetries().Inc()
	}

	response := dto.NewAnalyzeAnswerResponse(result)
	s.finish(correlationID, payload, response, attempts, start)
	return response
}

func (s *answerEvaluationService) invalid(err error) dto.AnalyzeAnswerResponse {
	message := describeValidation(err)
	return dto.AnalyzeAnswerResponse{
		Success:   false,
		Error:     message,
		Timestamp: s.now().UTC().Format(evaluation.TimestampLayout),
		Stage:     evaluation.StageReceived,
		Err:       fmt.Errorf("%w: %s", ErrInvalidRequest, message),
	}
}

func (s *answerEvaluationService) finish(correlationID string, payload dto.AnalyzeAnswerRequest, response dto.AnalyzeAnswerResponse, attempts int, start time.Time) {
	kind := errorKind(response.Err)
	outcome := "success"
	if !response.Success {
		outcome = "failure"
	}
	answerType := payload.AnswerType
	if answerType == "" {
		answerType = "unknown"
	}
	observability.Evaluations().WithLabelValues(outcome, answerType).Inc()

	event := s.logger.Info()
	if !response.Success {
		event = s.logger.Warn().Str("error", response.Error)
	}
	event.
		Str("correlation_id", correlationID).
		Str("stage", string(response.Stage)).
		Str("kind", kind).
		Int("attempts", attempts).
		Bool("cached", response.Cached).
		Dur("latency", s.now().Sub(start)).
		Msg("answer evaluation finished")

	s.publish(correlationID, payload, response, kind)
}

type evaluationCompletedEvent struct {
	CorrelationID string            `json:"correlation_id"`
	Success       bool              `json:"success"`
	Subject       string            `json:"subject"`
	Score         *evaluation.Score `json:"score,omitempty"`
	Stage         string            `json:"stage"`
	ErrorKind     string            `json:"error_kind,omitempty"`
	Cached        bool              `json:"cached"`
	Timestamp     string            `json:"timestamp"`
}

func (s *answerEvaluationService) publish(correlationID string, payload dto.AnalyzeAnswerRequest, response dto.AnalyzeAnswerResponse, kind string) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(evaluationCompletedEvent{
		CorrelationID: correlationID,
		Success:       response.Success,
		Subject:       payload.Subject,
		Score:         response.Score,
		Stage:         string(response.Stage),
		ErrorKind:     kind,
		Cached:        response.Cached,
		Timestamp:     response.Timestamp,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal evaluation event")
		return
	}

	msg := nats.NewMsg(s.config.EventSubject)
	msg.Data = data
	if correlationID != "" {
		msg.Header.Set(observability.CorrelationHeader, correlationID)
	}
	if err := s.publisher.PublishMsg(msg); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.config.EventSubject).Msg("failed to publish evaluation event")
	}
}

func errorKind(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return evaluation.KindName(err)
}

func describeValidation(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return ErrInvalidRequest.Error()
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", lowerFirst(fieldErr.Field())))
		case "oneof":
			fields = append(fields, fmt.Sprintf("%s must be one of: %s", lowerFirst(fieldErr.Field()), fieldErr.Param()))
		default:
			fields = append(fields, fmt.Sprintf("%s failed %s=%s", lowerFirst(fieldErr.Field()), fieldErr.Tag(), fieldErr.Param()))
		}
	}
	return strings.Join(fields, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
