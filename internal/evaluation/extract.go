package evaluation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-answer-eval/internal/observability"
	"github.com/noah-isme/gema-answer-eval/pkg/ocr"
)

// ExtractorConfig configures image-to-text extraction.
type ExtractorConfig struct {
	Language string
	Timeout  time.Duration
}

// Extractor turns a handwriting image into normalized answer text.
type Extractor struct {
	recognizer ocr.Recognizer
	language   string
	timeout    time.Duration
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewExtractor builds an extractor for a single OCR language.
func NewExtractor(recognizer ocr.Recognizer, cfg ExtractorConfig, logger zerolog.Logger) *Extractor {
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = ocr.DefaultLanguage
	}
	return &Extractor{
		recognizer: recognizer,
		language:   cfg.Language,
		timeout:    cfg.Timeout,
		tracer:     otel.Tracer("github.com/noah-isme/gema-answer-eval/internal/evaluation/extract"),
		logger:     logger.With().Str("component", "ocr_extractor").Logger(),
	}
}

// Language returns the configured OCR language code.
func (e *Extractor) Language() string { return e.language }

// Extract decodes the payload (raw bytes, data URI or base64), runs OCR and
// normalizes the recognized text. Every failure is reported as ErrOCRFailure.
func (e *Extractor) Extract(parent context.Context, payload []byte) (NormalizedAnswer, error) {
	if e.recognizer == nil {
		return NormalizedAnswer{}, fmt.Errorf("%w: no ocr engine configured", ErrOCRFailure)
	}

	image, err := DecodeImage(payload)
	if err != nil {
		return NormalizedAnswer{}, fmt.Errorf("%w: %v", ErrOCRFailure, err)
	}

	ctx, span := e.tracer.Start(parent, "ocr.recognize", trace.WithAttributes(
		attribute.String("ocr.engine", e.recognizer.Name()),
		attribute.String("ocr.language", e.language),
		attribute.Int("ocr.image_bytes", len(image)),
	))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := e.recognize(ctx, image)
	observability.OCRDuration().WithLabelValues(e.recognizer.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			return NormalizedAnswer{}, fmt.Errorf("%w: recognition timed out after %s", ErrOCRFailure, e.timeout)
		}
		return NormalizedAnswer{}, fmt.Errorf("%w: %v", ErrOCRFailure, err)
	}

	answer, err := Normalize(text)
	if err != nil {
		span.SetStatus(codes.Error, "text unreadable")
		e.logger.Debug().Int("raw_length", len(text)).Msg("recognized text below readability threshold")
		return NormalizedAnswer{}, fmt.Errorf("%w: recognized text is unreadable (%v)", ErrOCRFailure, err)
	}

	answer.SourceWasImage = true
	span.SetAttributes(attribute.Int("ocr.text_length", len(answer.Text)))
	return answer, nil
}

type recognition struct {
	text  string
	err   error
	fault any
}

// recognize bounds the recognizer by ctx even when it blocks in native code
// and never checks the context. An abandoned call finishes in the background
// and its result is dropped. A recognizer panic is re-raised on the caller's
// goroutine.
func (e *Extractor) recognize(ctx context.Context, image []byte) (string, error) {
	done := make(chan recognition, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- recognition{fault: rec}
			}
		}()
		text, err := e.recognizer.Recognize(ctx, image, e.language)
		done <- recognition{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.fault != nil {
			panic(out.fault)
		}
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// DecodeImage recovers raw image bytes from raw bytes, a data URI or a base64
// string, and rejects payloads that are not images.
func DecodeImage(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errors.New("image data is empty")
	}
	if isImage(payload) {
		return payload, nil
	}

	encoded := strings.TrimSpace(string(payload))
	if idx := strings.IndexByte(encoded, ','); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	encoded = strings.Join(strings.Fields(encoded), "")
	if encoded == "" {
		return nil, errors.New("image data is empty")
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("image data is not valid base64: %w", err)
	}
	if !isImage(data) {
		return nil, fmt.Errorf("unsupported image type %s", mimetype.Detect(data).String())
	}
	return data, nil
}

func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func isImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}
