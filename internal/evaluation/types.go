package evaluation

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScoreNotProvided is the wire form of a missing score.
const ScoreNotProvided = "Not provided"

// TimestampLayout renders result timestamps as ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceText
	sourceImage
)

// AnswerSource holds exactly one of a typed answer or an encoded handwriting image.
type AnswerSource struct {
	kind  sourceKind
	text  string
	image []byte
}

// TypedText builds a source from an answer typed by the learner.
func TypedText(text string) AnswerSource {
	return AnswerSource{kind: sourceText, text: text}
}

// ImageData builds a source from a data URI or a raw base64 payload.
func ImageData(encoded string) AnswerSource {
	return AnswerSource{kind: sourceImage, image: []byte(encoded)}
}

// ImageBytes builds a source from already decoded image bytes.
func ImageBytes(data []byte) AnswerSource {
	return AnswerSource{kind: sourceImage, image: append([]byte(nil), data...)}
}

// IsImage reports whether the source is a handwriting image.
func (s AnswerSource) IsImage() bool { return s.kind == sourceImage }

// IsZero reports whether no source was populated.
func (s AnswerSource) IsZero() bool { return s.kind == sourceNone }

// Request is one answer to evaluate together with the question context.
type Request struct {
	QuestionText   string
	Subject        string
	ExpectedPoints []string
	MaxWords       int
	Marks          int
	Answer         AnswerSource
}

// NormalizedAnswer is canonical answer text ready for prompting.
type NormalizedAnswer struct {
	Text           string
	SourceWasImage bool
}

// Prompt is the instruction payload sent to the reasoning engine.
type Prompt struct {
	Body string
}

// RawResponse is the untouched text returned by the reasoning engine.
type RawResponse struct {
	Text string
}

// Score is an integer mark, or the "not provided" sentinel when Valid is false.
type Score struct {
	Value int
	Valid bool
}

// ScoreOf returns a valid score.
func ScoreOf(value int) Score { return Score{Value: value, Valid: true} }

// String implements fmt.Stringer.
func (s Score) String() string {
	if !s.Valid {
		return ScoreNotProvided
	}
	return fmt.Sprintf("%d", s.Value)
}

// MarshalJSON encodes the score as an integer or the "Not provided" string.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return json.Marshal(ScoreNotProvided)
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts either wire form.
func (s *Score) UnmarshalJSON(data []byte) error {
	var value int
	if err := json.Unmarshal(data, &value); err == nil {
		*s = ScoreOf(value)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("score must be an integer or string: %w", err)
	}
	*s = Score{}
	return nil
}

// Stage names a step of the evaluation state machine.
type Stage string

const (
	StageReceived    Stage = "received"
	StageNormalizing Stage = "normalizing"
	StagePrompting   Stage = "prompting"
	StageEvaluating  Stage = "evaluating"
	StageParsing     Stage = "parsing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Failure describes why a pipeline run ended in the failed state.
type Failure struct {
	Stage Stage
	Kind  error
	Err   error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// Result is the terminal outcome of one evaluation. Success is all-or-nothing:
// a failed result never carries an analysis or a score.
type Result struct {
	Success   bool
	Analysis  string
	Score     Score
	Timestamp time.Time
	Error     string
	Failure   *Failure
	// Cached marks a result replayed from the result cache without an engine call.
	Cached bool
}

// FormattedTimestamp renders the result timestamp in TimestampLayout.
func (r Result) FormattedTimestamp() string {
	return r.Timestamp.UTC().Format(TimestampLayout)
}
