package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

// UnreadablePlaceholder stands in for an unreadable image when the placeholder
// policy is enabled.
const UnreadablePlaceholder = "text unreadable"

// ResultCache short-circuits the engine call for a prompt evaluated before.
type ResultCache interface {
	Lookup(ctx context.Context, prompt Prompt) (Parsed, bool)
	Store(ctx context.Context, prompt Prompt, parsed Parsed)
}

// PipelineConfig holds product policy knobs.
type PipelineConfig struct {
	// OCRPlaceholder evaluates UnreadablePlaceholder instead of failing when
	// the image cannot be read.
	OCRPlaceholder bool
	Cache          ResultCache
}

// Pipeline sequences normalization, prompting, evaluation and parsing.
// It keeps no per-request state, so one value serves concurrent callers.
type Pipeline struct {
	extractor *Extractor
	client    *Client
	cfg       PipelineConfig
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPipeline wires the stages together.
func NewPipeline(extractor *Extractor, client *Client, cfg PipelineConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		client:    client,
		cfg:       cfg,
		logger:    logger.With().Str("component", "evaluation_pipeline").Logger(),
		now:       time.Now,
	}
}

type run struct {
	p      *Pipeline
	stage  Stage
	logger zerolog.Logger
}

// Run evaluates one request. Failures of any stage are returned as a failed
// Result carrying only the error message; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, req Request) (result Result) {
	r := &run{p: p, stage: StageReceived, logger: p.requestLogger(ctx)}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Str("stage", string(r.stage)).Msg("evaluation stage panicked")
			result = r.fail(fmt.Errorf("internal error while %s: %v", r.stage, rec))
		}
	}()

	r.enter(StageNormalizing)
	answer, err := p.normalize(ctx, req.Answer)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StagePrompting)
	prompt := BuildPrompt(req, answer)

	if p.cfg.Cache != nil {
		if cached, ok := p.cfg.Cache.Lookup(ctx, prompt); ok {
			r.logger.Info().Msg("evaluation served from cache")
			result := r.done(cached)
			result.Cached = true
			return result
		}
	}

	r.enter(StageEvaluating)
	raw, err := p.client.Evaluate(ctx, prompt)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StageParsing)
	parsed, err := Parse(raw, req.Marks)
	if err != nil {
		return r.fail(err)
	}
	if !parsed.Score.Valid {
		r.logger.Info().Err(ErrScoreUnavailable).Msg("engine response has no usable score")
	}

	if p.cfg.Cache != nil {
		p.cfg.Cache.Store(ctx, prompt, parsed)
	}

	return r.done(parsed)
}

func (p *Pipeline) requestLogger(ctx context.Context) zerolog.Logger {
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		return p.logger.With().Str("correlation_id", id).Logger()
	}
	return p.logger
}

func (p *Pipeline) normalize(ctx context.Context, source AnswerSource) (NormalizedAnswer, error) {
	switch {
	case source.IsZero():
		return NormalizedAnswer{}, fmt.Errorf("%w: no answer provided", ErrEmptyInput)
	case !source.IsImage():
		return Normalize(source.text)
	}

	if p.extractor == nil {
		return NormalizedAnswer{}, fmt.Errorf("%w: image answers are not supported", ErrOCRFailure)
	}
	answer, err := p.extractor.Extract(ctx, source.image)
	if err != nil && p.cfg.OCRPlaceholder && errors.Is(err, ErrOCRFailure) {
		logger := p.requestLogger(ctx)
		logger.Warn().Err(err).Msg("substituting placeholder for unreadable image")
		return NormalizedAnswer{Text: UnreadablePlaceholder, SourceWasImage: true}, nil
	}
	return answer, err
}

func (r *run) enter(stage Stage) {
	r.logger.Debug().Str("from", string(r.stage)).Str("to", string(stage)).Msg("evaluation stage transition")
	r.stage = stage
}

func (r *run) fail(err error) Result {
	failed := r.stage
	r.stage = StageFailed
	kind := Kind(err)
	observability.StageFailures().WithLabelValues(string(failed), KindName(err)).Inc()

	return Result{
		Success:   false,
		Error:     err.Error(),
		Timestamp: r.p.now().UTC(),
		Failure:   &Failure{Stage: failed, Kind: kind, Err: err},
	}
}

func (r *run) done(parsed Parsed) Result {
	r.enter(StageDone)
	return Result{
		Success:   true,
		Analysis:  parsed.Analysis,
		Score:     parsed.Score,
		Timestamp: r.p.now().UTC(),
	}
}
