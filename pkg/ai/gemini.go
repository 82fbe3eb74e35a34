package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GeminiConfig defines configuration options for the Gemini engine.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Options     []option.ClientOption
	Logger      zerolog.Logger
}

// GeminiEngine implements Engine against the Google Generative Language API.
type GeminiEngine struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiEngine creates the API client once; the model handle is safe for
// concurrent use because its configuration is never changed after this call.
func NewGeminiEngine(ctx context.Context, cfg GeminiConfig) (*GeminiEngine, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(cfg.Temperature),
		MaxOutputTokens: ptrInt32(int32(cfg.MaxTokens)),
	}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(examinerSystemPrompt)},
	}

	return &GeminiEngine{
		client: client,
		model:  model,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-answer-eval/pkg/ai/gemini"),
		logger: nopIfDisabled(cfg.Logger).With().Str("component", "gemini_engine").Logger(),
	}, nil
}

func (e *GeminiEngine) Name() string { return "gemini" }

func (e *GeminiEngine) Model() string { return e.cfg.Model }

// Close releases the underlying API client.
func (e *GeminiEngine) Close() error {
	return e.client.Close()
}

// Submit sends the prompt as a single non-streaming GenerateContent call.
func (e *GeminiEngine) Submit(parent context.Context, prompt string) (string, error) {
	ctx, span := e.tracer.Start(parent, "gemini.submit", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("prompt_length", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	aiDuration.WithLabelValues(e.Name(), e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(e.Name(), e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("gemini submit: %v: %w", err, ErrNoContent)
		}
		return "", fmt.Errorf("gemini submit: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		aiFailures.WithLabelValues(e.Name(), e.cfg.Model).Inc()
		span.SetStatus(codes.Error, "no text parts")
		return "", fmt.Errorf("gemini submit: %w", ErrNoContent)
	}

	if resp.UsageMetadata != nil {
		e.logger.Debug().
			Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount).
			Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount).
			Msg("gemini completion received")
	}

	return text, nil
}

// firstText joins the text parts of the first candidate that carries content.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
