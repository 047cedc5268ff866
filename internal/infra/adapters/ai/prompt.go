package ai

import (
	"fmt"
	"strings"

	"school-management-platform/internal/domain/ports/adapter"
)

const markingSystemPrompt = "You are a study coach for school students. " +
	"Given a quiz result, write two or three short encouraging sentences " +
	"telling the student what to review. Do not restate the score. " +
	"Do not reveal correct answers."

// markingPrompt renders the attempt digest into the user message sent to a
// model. Kept in one place so every provider grades from identical input.
func markingPrompt(attempt adapter.AttemptSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %s\n", attempt.QuizTitle)
	fmt.Fprintf(&b, "Result: %d of %d questions correct (score %d).\n", attempt.Correct, attempt.Total, attempt.Score)
	if len(attempt.Missed) > 0 {
		b.WriteString("Topics the student got wrong:\n")
		for _, q := range attempt.Missed {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	} else {
		b.WriteString("The student answered everything correctly.\n")
	}
	return b.String()
}
