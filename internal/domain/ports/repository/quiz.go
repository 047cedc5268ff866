package repository

import (
	"context"

	"school-management-platform/internal/domain/model"
)

// QuizRepository is the port for quiz persistence.
type QuizRepository interface {
	Save(ctx context.Context, tx Tx, quiz *model.Quiz) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Quiz, error)
	ListByTenant(ctx context.Context, tx Tx, tenantID string) ([]*model.Quiz, error)
}

// SubmissionRepository is the port for graded attempts.
//
// Create is atomic create-if-absent on (QuizID, StudentID): exactly one of
// two concurrent attempts succeeds; the loser gets
// domain.ErrDuplicateSubmission and the stored row is untouched.
type SubmissionRepository interface {
	Create(ctx context.Context, tx Tx, sub *model.Submission) error
	FindByQuizAndStudent(ctx context.Context, tx Tx, quizID, studentID string) (*model.Submission, error)
	ListByQuiz(ctx context.Context, tx Tx, quizID string) ([]*model.Submission, error)
	SetFeedback(ctx context.Context, tx Tx, submissionID, feedback string) error
}
