package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/noah-isme/gema-answer-eval/pkg/ocr"
)

// Recognizer implements ocr.Recognizer using the gosseract client.
type Recognizer struct {
	clientFactory func() *gosseract.Client
	pageSegMode   gosseract.PageSegMode
}

// Option customises the recognizer.
type Option func(*Recognizer)

// WithPageSegMode overrides the Tesseract page segmentation mode.
func WithPageSegMode(mode gosseract.PageSegMode) Option {
	return func(r *Recognizer) { r.pageSegMode = mode }
}

// New constructs a Tesseract-backed recognizer.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{
		clientFactory: gosseract.NewClient,
		pageSegMode:   gosseract.PSM_AUTO,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recognizer) Name() string { return "tesseract" }

// Recognize runs OCR on a single image. A fresh client is used per call so
// concurrent requests never share native state.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if len(image) == 0 {
		return "", ocr.ErrNoImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(language) == "" {
		language = ocr.DefaultLanguage
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(r.pageSegMode); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}
