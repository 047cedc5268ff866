package model

import (
	"math"
	"time"

	"school-management-platform/internal/domain"
)

// Answer selects one option of one question by position.
type Answer struct {
	QuestionIndex  int
	SelectedOption int
}

// Submission is one student's single graded attempt at a quiz. The
// (QuizID, StudentID) pair is unique; the storage layer enforces it.
type Submission struct {
	ID          string // ULID: attempts sort by creation time
	QuizID      string
	StudentID   string
	Answers     []Answer
	Score       int // 0..100
	Feedback    string
	SubmittedAt time.Time
}

// GradeSubmission computes the deterministic score of answers against a
// quiz. It is pure: grading the same (quiz, answers) pair twice yields the
// same score, and no input is mutated.
//
// Questions are walked in the quiz's defined order. A question with no
// matching answer counts as incorrect. A selected option outside the
// question's option range, an answer referencing a nonexistent question,
// or a duplicate question index rejects the whole submission as malformed
// before any score is produced.
func GradeSubmission(quiz *Quiz, answers []Answer) (int, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return 0, domain.ErrEmptyQuiz
	}

	byQuestion := make(map[int]Answer, len(answers))
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(quiz.Questions) {
			return 0, domain.ErrMalformedSubmission
		}
		if _, dup := byQuestion[a.QuestionIndex]; dup {
			// duplicates are rejected rather than resolved last-write-wins
			return 0, domain.ErrMalformedSubmission
		}
		if a.SelectedOption < 0 || a.SelectedOption >= len(quiz.Questions[a.QuestionIndex].Options) {
			return 0, domain.ErrMalformedSubmission
		}
		byQuestion[a.QuestionIndex] = a
	}

	correct := 0
	for i, q := range quiz.Questions {
		a, ok := byQuestion[i]
		if !ok {
			continue // unanswered counts as incorrect
		}
		// compare by option value, not by index
		if q.Options[a.SelectedOption] == q.CorrectAnswer {
			correct++
		}
	}

	score := int(math.Round(float64(correct) / float64(len(quiz.Questions)) * 100))
	return score, nil
}
