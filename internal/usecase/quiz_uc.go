package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ QuizUseCase = (*quizUC)(nil)

type QuizUseCase interface {
	// Create validates and persists a quiz owned by the teacher.
	Create(ctx context.Context, tenantID, materialRef, teacherID, title string, questions []model.Question, duration time.Duration, publish bool) (*model.Quiz, error)
	// Publish makes a quiz visible to students. Empty quizzes cannot be
	// published.
	Publish(ctx context.Context, quizID string) (*model.Quiz, error)
	Get(ctx context.Context, quizID string) (*model.Quiz, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*model.Quiz, error)
}

type quizUC struct {
	quizzes repository.QuizRepository
	log     *zerolog.Logger
}

func NewQuizUseCase(quizzes repository.QuizRepository, logger *zerolog.Logger) *quizUC {
	return &quizUC{quizzes: quizzes, log: logger}
}

func (u *quizUC) Create(ctx context.Context, tenantID, materialRef, teacherID, title string, questions []model.Question, duration time.Duration, publish bool) (*model.Quiz, error) {
	quiz, err := model.NewQuiz(uuid.NewString(), tenantID, materialRef, teacherID, title, questions, duration, publish)
	if err != nil {
		return nil, err
	}
	if err := u.quizzes.Save(ctx, repository.NoTX, quiz); err != nil {
		return nil, err
	}
	u.log.Info().Str("quiz_id", quiz.ID).Str("tenant_id", tenantID).
		Int("questions", len(quiz.Questions)).Bool("published", quiz.IsPublished).Msg("quiz created")
	return quiz, nil
}

func (u *quizUC) Publish(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, err := u.quizzes.FindByID(ctx, repository.NoTX, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.IsPublished {
		return quiz, nil
	}
	if err := quiz.Publish(); err != nil {
		return nil, err
	}
	if err := u.quizzes.Save(ctx, repository.NoTX, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (u *quizUC) Get(ctx context.Context, quizID string) (*model.Quiz, error) {
	return u.quizzes.FindByID(ctx, repository.NoTX, quizID)
}

func (u *quizUC) ListByTenant(ctx context.Context, tenantID string) ([]*model.Quiz, error) {
	return u.quizzes.ListByTenant(ctx, repository.NoTX, tenantID)
}
