package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/adapter"
	"school-management-platform/internal/domain/ports/repository"
	"school-management-platform/internal/infra/metrics"
	"school-management-platform/internal/infra/worker"
)

// Compile-time check
var _ SubmissionUseCase = (*submissionUC)(nil)

// RateLimiter gates how often one student may attempt submissions.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type SubmissionUseCase interface {
	// Submit grades the answers against the published quiz and persists
	// the attempt. Exactly one attempt per (quiz, student) ever persists;
	// a concurrent or repeated attempt fails with ErrDuplicateSubmission
	// and leaves the stored score untouched.
	Submit(ctx context.Context, quizID, studentID string, answers []model.Answer) (*model.Submission, error)
	// Get returns the student's graded attempt for a quiz.
	Get(ctx context.Context, quizID, studentID string) (*model.Submission, error)
	// ListByQuiz returns all graded attempts for a quiz (teacher view).
	ListByQuiz(ctx context.Context, quizID string) ([]*model.Submission, error)
}

type submissionUC struct {
	quizzes     repository.QuizRepository
	submissions repository.SubmissionRepository
	entitle     EntitlementUseCase
	marker      adapter.MarkingAdapter
	pool        *worker.Pool
	limiter     RateLimiter
	log         *zerolog.Logger
}

// Submission attempts allowed per student per minute. Retries after
// validation errors are expected; duplicates are caught later anyway.
const (
	submitRateLimit  = 5
	submitRateWindow = time.Minute
)

func NewSubmissionUseCase(
	quizzes repository.QuizRepository,
	submissions repository.SubmissionRepository,
	entitle EntitlementUseCase,
	marker adapter.MarkingAdapter,
	pool *worker.Pool,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *submissionUC {
	return &submissionUC{
		quizzes:     quizzes,
		submissions: submissions,
		entitle:     entitle,
		marker:      marker,
		pool:        pool,
		limiter:     limiter,
		log:         logger,
	}
}

func (u *submissionUC) Submit(ctx context.Context, quizID, studentID string, answers []model.Answer) (*model.Submission, error) {
	if quizID == "" || studentID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, submitKey(studentID), submitRateLimit, submitRateWindow)
		if err != nil {
			// Rate limiting is best-effort; a broken limiter must not
			// block grading.
			u.log.Warn().Err(err).Str("student_id", studentID).Msg("rate limiter unavailable")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	quiz, err := u.quizzes.FindByID(ctx, repository.NoTX, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// An answer set against a nonexistent quiz is malformed input,
			// not a bare lookup miss.
			return nil, domain.ErrMalformedSubmission
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, domain.ErrQuizNotPublished
	}

	// Grade before touching storage: malformed input must be rejected
	// before any score is computed or persisted.
	score, err := model.GradeSubmission(quiz, answers)
	if err != nil {
		metrics.IncSubmissionGraded("rejected")
		return nil, err
	}

	sub := &model.Submission{
		ID:          newSubmissionID(),
		QuizID:      quiz.ID,
		StudentID:   studentID,
		Answers:     answers,
		Score:       score,
		SubmittedAt: time.Now(),
	}
	// Atomic create-if-absent: the storage layer's uniqueness constraint
	// decides the winner of a concurrent race.
	if err := u.submissions.Create(ctx, repository.NoTX, sub); err != nil {
		if errors.Is(err, domain.ErrDuplicateSubmission) {
			metrics.IncSubmissionGraded("duplicate")
		}
		return nil, err
	}
	metrics.IncSubmissionGraded("graded")
	metrics.ObserveSubmissionScore(score)
	u.log.Info().Str("quiz_id", quiz.ID).Str("submission_id", sub.ID).Int("score", score).Msg("submission graded")

	u.enqueueFeedback(quiz, sub, answers)
	return sub, nil
}

// enqueueFeedback schedules advisory AI feedback for tenants entitled to
// aiMarking. It never affects the persisted score and failures are only
// logged.
func (u *submissionUC) enqueueFeedback(quiz *model.Quiz, sub *model.Submission, answers []model.Answer) {
	if u.marker == nil || u.pool == nil {
		return
	}
	summary := summarizeAttempt(quiz, sub.Score, answers)
	submissionID := sub.ID
	task := func(ctx context.Context) error {
		ok, err := u.entitle.HasFeature(ctx, quiz.TenantID, model.FeatureAIMarking)
		if err != nil || !ok {
			return err
		}
		feedback, err := u.marker.MarkFeedback(ctx, summary)
		if err != nil {
			u.log.Warn().Err(err).Str("submission_id", submissionID).Msg("marking feedback failed")
			return nil
		}
		return u.submissions.SetFeedback(ctx, repository.NoTX, submissionID, feedback)
	}
	if err := u.pool.Submit(task); err != nil {
		u.log.Warn().Err(err).Str("submission_id", submissionID).Msg("feedback task dropped")
	}
}

func (u *submissionUC) Get(ctx context.Context, quizID, studentID string) (*model.Submission, error) {
	return u.submissions.FindByQuizAndStudent(ctx, repository.NoTX, quizID, studentID)
}

func (u *submissionUC) ListByQuiz(ctx context.Context, quizID string) ([]*model.Submission, error) {
	return u.submissions.ListByQuiz(ctx, repository.NoTX, quizID)
}

func summarizeAttempt(quiz *model.Quiz, score int, answers []model.Answer) adapter.AttemptSummary {
	byQuestion := make(map[int]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionIndex] = a
	}
	s := adapter.AttemptSummary{
		QuizTitle: quiz.Title,
		Score:     score,
		Total:     len(quiz.Questions),
	}
	for i, q := range quiz.Questions {
		a, ok := byQuestion[i]
		if ok && q.Options[a.SelectedOption] == q.CorrectAnswer {
			s.Correct++
			continue
		}
		s.Missed = append(s.Missed, q.Text)
	}
	return s
}

func submitKey(studentID string) string {
	return "rate_limit:submit:" + studentID
}

func newSubmissionID() string {
	return ulid.Make().String()
}
