package dto

import (
	"strings"

	"github.com/noah-isme/gema-answer-eval/internal/evaluation"
)

// Answer types accepted by the analyze endpoint.
const (
	AnswerTypeText  = "text"
	AnswerTypeImage = "image"
)

// AnalyzeAnswerRequest is the inbound payload of the analyze endpoint.
type AnalyzeAnswerRequest struct {
	QuestionText   string   `json:"questionText" validate:"required"`
	Subject        string   `json:"subject" validate:"required"`
	ExpectedPoints []string `json:"expectedPoints"`
	UserAnswer     string   `json:"userAnswer"`
	AnswerType     string   `json:"answerType" validate:"required,oneof=text image"`
	// IsImage is the older client flag, used only when AnswerType is absent.
	IsImage   *bool  `json:"isImage,omitempty"`
	ImageData string `json:"imageData"`
	MaxWords  int    `json:"maxWords" validate:"gte=0"`
	Marks     int    `json:"marks" validate:"required,gt=0"`
}

// Normalize trims free-text fields and resolves the legacy image flag.
func (r AnalyzeAnswerRequest) Normalize() AnalyzeAnswerRequest {
	r.QuestionText = strings.TrimSpace(r.QuestionText)
	r.Subject = strings.TrimSpace(r.Subject)
	r.AnswerType = strings.ToLower(strings.TrimSpace(r.AnswerType))
	if r.AnswerType == "" && r.IsImage != nil {
		if *r.IsImage {
			r.AnswerType = AnswerTypeImage
		} else {
			r.AnswerType = AnswerTypeText
		}
	}
	return r
}

// EvaluationRequest maps the payload onto the pipeline input. The answer type
// selects exactly one source; the other field is ignored.
func (r AnalyzeAnswerRequest) EvaluationRequest() evaluation.Request {
	req := evaluation.Request{
		QuestionText:   r.QuestionText,
		Subject:        r.Subject,
		ExpectedPoints: r.ExpectedPoints,
		MaxWords:       r.MaxWords,
		Marks:          r.Marks,
	}
	if r.AnswerType == AnswerTypeImage {
		req.Answer = evaluation.ImageData(r.ImageData)
	} else {
		req.Answer = evaluation.TypedText(r.UserAnswer)
	}
	return req
}

// AnalyzeAnswerResponse is the outbound result shape. Analysis and Score are
// present only on success and Error only on failure.
type AnalyzeAnswerResponse struct {
	Success   bool              `json:"success"`
	Analysis  string            `json:"analysis,omitempty"`
	Score     *evaluation.Score `json:"score,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp string            `json:"timestamp"`

	Stage  evaluation.Stage `json:"-"`
	Err    error            `json:"-"`
	Cached bool             `json:"-"`
}

// NewAnalyzeAnswerResponse converts a pipeline result into the wire shape.
func NewAnalyzeAnswerResponse(result evaluation.Result) AnalyzeAnswerResponse {
	response := AnalyzeAnswerResponse{
		Success:   result.Success,
		Timestamp: result.FormattedTimestamp(),
	}

	if result.Success {
		score := result.Score
		response.Analysis = result.Analysis
		response.Score = &score
		response.Stage = evaluation.StageDone
		response.Cached = result.Cached
		return response
	}

	response.Error = result.Error
	if response.Error == "" {
		response.Error = "evaluation failed"
	}
	if result.Failure != nil {
		response.Stage = result.Failure.Stage
		response.Err = result.Failure.Err
	}
	return response
}
