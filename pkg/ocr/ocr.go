// Package ocr defines the boundary to optical character recognition engines.
// Engines may be backed by a native library or a remote API; callers only see
// image bytes going in and plain text coming out.
package ocr

import (
	"context"
	"errors"
)

// DefaultLanguage is the Tesseract code used when none is configured.
const DefaultLanguage = "eng"

// ErrNoImage indicates the recognizer was called without image data.
var ErrNoImage = errors.New("ocr: image data is empty")

// Recognizer converts an encoded image into text for a single language.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte, language string) (string, error)
}

// Fixture is a deterministic recognizer returning pre-recorded text. It is
// meant for tests and local development without a native OCR install.
type Fixture struct {
	Text string
	Err  error
}

// Name implements Recognizer.
func (f Fixture) Name() string { return "fixture" }

// Recognize implements Recognizer.
func (f Fixture) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", ErrNoImage
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
