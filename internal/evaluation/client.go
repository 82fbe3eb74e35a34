package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-answer-eval/pkg/ai"
)

// Client submits prompts to a reasoning engine and classifies its failures.
// It never retries; retry policy belongs to the caller.
type Client struct {
	engine  ai.Engine
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient wraps engine with a per-call timeout. A zero timeout waits for the
// caller's context only.
func NewClient(engine ai.Engine, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("component", "evaluation_client").Logger(),
	}
}

// Evaluate sends the prompt and returns the raw engine text.
func (c *Client) Evaluate(ctx context.Context, prompt Prompt) (RawResponse, error) {
	if c.engine == nil {
		return RawResponse{}, fmt.Errorf("%w: no engine configured", ErrEngineUnavailable)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.engine.Submit(ctx, prompt.Body)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrNoContent):
			return RawResponse{}, fmt.Errorf("%w: %v", ErrEmptyResponse, err)
		case errors.Is(err, context.DeadlineExceeded):
			return RawResponse{}, fmt.Errorf("%w: %s did not answer within %s", ErrEngineUnavailable, c.engine.Name(), c.timeout)
		default:
			c.logger.Warn().Err(err).Str("engine", c.engine.Name()).Str("model", c.engine.Model()).Msg("engine call failed")
			return RawResponse{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
	}

	if strings.TrimSpace(text) == "" {
		return RawResponse{}, fmt.Errorf("%w: %s returned no text", ErrEmptyResponse, c.engine.Name())
	}

	return RawResponse{Text: text}, nil
}
