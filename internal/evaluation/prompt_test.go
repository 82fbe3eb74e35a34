package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{
		QuestionText:   "Describe the significance of the Salt March.",
		Subject:        "Modern Indian History",
		ExpectedPoints: []string{"Civil disobedience", "  ", "Mass mobilisation"},
		MaxWords:       150,
		Marks:          10,
		Answer:         TypedText("Gandhi led the Salt March in 1930."),
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	req := sampleRequest()
	answer := NormalizedAnswer{Text: "Gandhi led the Salt March in 1930."}

	require.Equal(t, BuildPrompt(req, answer), BuildPrompt(req, answer))
}

func TestBuildPromptCarriesQuestionContext(t *testing.T) {
	prompt := BuildPrompt(sampleRequest(), NormalizedAnswer{Text: "Gandhi led the Salt March in 1930."})

	require.Contains(t, prompt.Body, "UPSC examiner")
	require.Contains(t, prompt.Body, "Question: Describe the significance of the Salt March.")
	require.Contains(t, prompt.Body, "Subject: Modern Indian History")
	require.Contains(t, prompt.Body, "1. Civil disobedience\n2. Mass mobilisation\n")
	require.Contains(t, prompt.Body, "Maximum Words: 150")
	require.Contains(t, prompt.Body, "Total Marks: 10")
	require.Contains(t, prompt.Body, "Student's Answer (typed):\nGandhi led the Salt March in 1930.")
	require.Contains(t, prompt.Body, "SCORE AND JUSTIFICATION")
	require.True(t, strings.HasSuffix(prompt.Body, "Score: <integer>/10\n"))
}

func TestBuildPromptHandlesMissingRubricAndWordLimit(t *testing.T) {
	req := sampleRequest()
	req.ExpectedPoints = nil
	req.MaxWords = 0

	prompt := BuildPrompt(req, NormalizedAnswer{Text: "some answer", SourceWasImage: true})

	require.Contains(t, prompt.Body, "Expected Key Points:\n(none provided)\n")
	require.Contains(t, prompt.Body, "Maximum Words: no limit")
	require.Contains(t, prompt.Body, "extracted from a handwritten image")
}

func TestBuildPromptDiffersWithAnswerOrigin(t *testing.T) {
	req := sampleRequest()
	typed := BuildPrompt(req, NormalizedAnswer{Text: "same words here"})
	scanned := BuildPrompt(req, NormalizedAnswer{Text: "same words here", SourceWasImage: true})

	require.NotEqual(t, typed.Body, scanned.Body)
}
