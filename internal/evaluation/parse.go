package evaluation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// The first integer after the score label, tolerating case changes, line
	// breaks, non-breaking spaces and emphasis such as "**Score:**\n7/10".
	// The second group catches fractional marks so they can be refused.
	scorePattern = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSuffix(ScoreLabel, ":")) + `[*_\s\x{00A0}]*:[*_\s\x{00A0}]*(\d+)(\.\d)?`)

	headingMarkers  = regexp.MustCompile(`(?m)^[ \t]*(?:#+[ \t]*)+`)
	repeatedStars   = regexp.MustCompile(`\*{2,}`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	carriageReturns = strings.NewReplacer("\r\n", "\n")
)

// Parsed is the structured part of an engine response.
type Parsed struct {
	Analysis string
	Score    Score
}

// Parse extracts the critique and the score from the raw engine text. The two
// extractions are independent: a missing score leaves the analysis intact.
func Parse(raw RawResponse, marks int) (Parsed, error) {
	parsed := Parsed{
		Analysis: Cleanup(raw.Text),
		Score:    ParseScore(raw.Text, marks),
	}
	if parsed.Analysis == "" {
		return Parsed{}, fmt.Errorf("%w: no analysis text after cleanup", ErrEmptyResponse)
	}
	return parsed, nil
}

// ParseScore returns the first score found in text, or the "not provided"
// sentinel when it is absent, fractional or outside [0, marks].
func ParseScore(text string, marks int) Score {
	match := scorePattern.FindStringSubmatch(text)
	if match == nil || match[2] != "" {
		return Score{}
	}
	value, err := strconv.Atoi(match[1])
	if err != nil || value < 0 || value > marks {
		return Score{}
	}
	return ScoreOf(value)
}

// Cleanup strips markdown noise from engine output: heading markers, repeated
// emphasis and runs of blank lines. Cleanup(Cleanup(x)) == Cleanup(x).
func Cleanup(text string) string {
	for {
		next := cleanupPass(text)
		if next == text {
			return next
		}
		text = next
	}
}

// cleanupPass only ever removes characters, so Cleanup reaches a fixed point.
func cleanupPass(text string) string {
	text = carriageReturns.Replace(text)
	text = headingMarkers.ReplaceAllString(text, "")
	text = repeatedStars.ReplaceAllString(text, "*")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
