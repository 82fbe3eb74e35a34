package evaluation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinAnswerLength is the shortest answer, in runes, treated as readable.
const MinAnswerLength = 5

// Normalize collapses whitespace runs to single spaces and trims the text.
// Nothing else is altered so the engine sees the answer as written.
func Normalize(raw string) (NormalizedAnswer, error) {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return NormalizedAnswer{}, fmt.Errorf("%w: no text", ErrEmptyInput)
	}
	if n := utf8.RuneCountInString(text); n < MinAnswerLength {
		return NormalizedAnswer{}, fmt.Errorf("%w: %d characters, need at least %d", ErrEmptyInput, n, MinAnswerLength)
	}
	return NormalizedAnswer{Text: text}, nil
}
