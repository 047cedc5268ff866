package adapter

import "context"

// AttemptSummary is the graded-attempt digest handed to a marker. It
// deliberately carries no student identity; feedback generation needs the
// academic content only.
type AttemptSummary struct {
	QuizTitle string
	Score     int // 0..100
	Total     int // number of questions
	Correct   int
	// Missed holds the texts of questions answered incorrectly or not at
	// all, in quiz order.
	Missed []string
}

// MarkingAdapter generates short advisory feedback for a graded attempt.
// The deterministic score is computed before any marker runs; feedback is
// a Premium add-on and never influences the persisted score.
type MarkingAdapter interface {
	Name() string
	MarkFeedback(ctx context.Context, attempt AttemptSummary) (string, error)
}
