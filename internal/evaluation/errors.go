package evaluation

import "errors"

// ErrEmptyInput indicates the answer text was empty or too short to evaluate.
var ErrEmptyInput = errors.New("answer text is empty or unreadable")

// ErrOCRFailure indicates the handwriting image could not be converted to text.
var ErrOCRFailure = errors.New("failed to extract text from image")

// ErrEngineUnavailable indicates the reasoning engine call failed or timed out.
var ErrEngineUnavailable = errors.New("evaluation engine unavailable")

// ErrEmptyResponse indicates the reasoning engine answered without usable text.
var ErrEmptyResponse = errors.New("evaluation engine returned an empty response")

// ErrScoreUnavailable marks a critique without a recognisable score. It never fails a request.
var ErrScoreUnavailable = errors.New("score not provided")

var fatalKinds = []error{ErrEmptyInput, ErrOCRFailure, ErrEngineUnavailable, ErrEmptyResponse}

// Kind returns the taxonomy sentinel wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range fatalKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Retryable reports whether re-running the pipeline may produce a different outcome.
func Retryable(err error) bool {
	return errors.Is(err, ErrEngineUnavailable) || errors.Is(err, ErrEmptyResponse)
}

// KindName returns a short stable label for metrics and events.
func KindName(err error) string {
	switch Kind(err) {
	case ErrEmptyInput:
		return "empty_input"
	case ErrOCRFailure:
		return "ocr_failure"
	case ErrEngineUnavailable:
		return "engine_unavailable"
	case ErrEmptyResponse:
		return "empty_response"
	}
	if err == nil {
		return ""
	}
	return "unknown"
}
