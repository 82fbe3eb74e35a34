package evaluation

import (
	"strconv"
	"strings"
)

// ScoreLabel prefixes the final score line the engine is told to emit and the
// parser searches for. Both sides must change together.
const ScoreLabel = "Score:"

// BuildPrompt renders the evaluation instructions for one answer. The output
// depends only on its arguments so identical requests yield identical text.
func BuildPrompt(req Request, answer NormalizedAnswer) Prompt {
	marks := strconv.Itoa(req.Marks)

	b := strings.Builder{}
	b.WriteString("You are an experienced UPSC examiner. Evaluate the student's answer to the exam question below.\n\n")

	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(req.QuestionText))
	b.WriteString("\nSubject: ")
	b.WriteString(strings.TrimSpace(req.Subject))

	b.WriteString("\nExpected Key Points:\n")
	points := 0
	for _, point := range req.ExpectedPoints {
		point = strings.TrimSpace(point)
		if point == "" {
			continue
		}
		points++
		b.WriteString(strconv.Itoa(points))
		b.WriteString(". ")
		b.WriteString(point)
		b.WriteString("\n")
	}
	if points == 0 {
		b.WriteString("(none provided)\n")
	}

	b.WriteString("Maximum Words: ")
	if req.MaxWords > 0 {
		b.WriteString(strconv.Itoa(req.MaxWords))
	} else {
		b.WriteString("no limit")
	}
	b.WriteString("\nTotal Marks: ")
	b.WriteString(marks)

	if answer.SourceWasImage {
		b.WriteString("\n\nStudent's Answer (extracted from a handwritten image, OCR errors are possible):\n")
	} else {
		b.WriteString("\n\nStudent's Answer (typed):\n")
	}
	b.WriteString(answer.Text)

	b.WriteString("\n\nTask:\n")
	b.WriteString("1. Evaluate the answer for accuracy, completeness, and relevance to the question, checking it against each expected key point.\n")
	b.WriteString("2. If the answer is incorrect or incomplete, provide the correct answer.\n")
	b.WriteString("3. List the key strengths and the areas for improvement.\n")
	b.WriteString("4. Give a final score out of ")
	b.WriteString(marks)
	b.WriteString(" with a brief justification.\n")

	b.WriteString("\nStructure the response in these sections:\n")
	b.WriteString("1. CONTENT ANALYSIS\n")
	b.WriteString("2. STRUCTURE AND PRESENTATION\n")
	b.WriteString("3. STRENGTHS\n")
	b.WriteString("4. AREAS FOR IMPROVEMENT\n")
	b.WriteString("5. CORRECT ANSWER (only if the submission is wrong or incomplete)\n")
	b.WriteString("6. SCORE AND JUSTIFICATION\n")

	b.WriteString("\nUse clear, constructive language and keep formatting minimal.\n")
	b.WriteString("The last line of the response must be exactly: ")
	b.WriteString(ScoreLabel)
	b.WriteString(" <integer>/")
	b.WriteString(marks)
	b.WriteString("\n")

	return Prompt{Body: b.String()}
}
