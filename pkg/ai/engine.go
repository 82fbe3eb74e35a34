package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrNoContent indicates the provider answered without a text payload.
var ErrNoContent = errors.New("ai: response contains no text")

// ErrUnknownProvider indicates the configured provider name is not supported.
var ErrUnknownProvider = errors.New("ai: unknown provider")

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of reasoning engine completion requests",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of reasoning engine completion failures",
	}, []string{"provider", "model"})
)

// Engine is a reasoning engine that answers a text prompt with text.
type Engine interface {
	Name() string
	Model() string
	Submit(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig selects and configures an Engine implementation.
type ProviderConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	BaseURL     string
	Logger      zerolog.Logger
}

// New builds the engine named by cfg.Provider. Engines holding network
// clients also implement io.Closer.
func New(ctx context.Context, cfg ProviderConfig) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini", "google":
		engine, err := NewGeminiEngine(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case "openai", "gpt":
		engine, err := NewOpenAIEngine(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			BaseURL:     cfg.BaseURL,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func nopIfDisabled(logger zerolog.Logger) zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		return zerolog.Nop()
	}
	return logger
}
