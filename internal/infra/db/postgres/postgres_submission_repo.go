package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

var _ repository.SubmissionRepository = (*submissionRepo)(nil)

type submissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *submissionRepo {
	return &submissionRepo{pool: pool}
}

type answerDoc struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedOption int `json:"selectedOption"`
}

// Create inserts the attempt. The (quiz_id, student_id) pair carries a
// UNIQUE constraint and the insert is ON CONFLICT DO NOTHING, so under a
// race exactly one attempt lands; the other sees zero rows affected and
// gets domain.ErrDuplicateSubmission with the stored row untouched.
func (r *submissionRepo) Create(ctx context.Context, tx repository.Tx, sub *model.Submission) error {
	docs := make([]answerDoc, len(sub.Answers))
	for i, a := range sub.Answers {
		docs[i] = answerDoc{QuestionIndex: a.QuestionIndex, SelectedOption: a.SelectedOption}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return domain.ErrOperationFailed
	}

	const q = `
INSERT INTO submissions (id, quiz_id, student_id, answers, score, feedback, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (quiz_id, student_id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		sub.ID, sub.QuizID, sub.StudentID, payload, sub.Score, sub.Feedback, sub.SubmittedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateSubmission
	}
	return nil
}

func (r *submissionRepo) FindByQuizAndStudent(ctx context.Context, tx repository.Tx, quizID, studentID string) (*model.Submission, error) {
	const q = `
SELECT id, quiz_id, student_id, answers, score, feedback, submitted_at
  FROM submissions WHERE quiz_id=$1 AND student_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, quizID, studentID)
	if err != nil {
		return nil, err
	}
	return scanSubmission(row)
}

func (r *submissionRepo) ListByQuiz(ctx context.Context, tx repository.Tx, quizID string) ([]*model.Submission, error) {
	const q = `
SELECT id, quiz_id, student_id, answers, score, feedback, submitted_at
  FROM submissions WHERE quiz_id=$1 ORDER BY submitted_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, quizID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *submissionRepo) SetFeedback(ctx context.Context, tx repository.Tx, submissionID, feedback string) error {
	const q = `UPDATE submissions SET feedback=$2 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, submissionID, feedback)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	sub := &model.Submission{}
	var payload []byte
	if err := row.Scan(&sub.ID, &sub.QuizID, &sub.StudentID, &payload,
		&sub.Score, &sub.Feedback, &sub.SubmittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var docs []answerDoc
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	sub.Answers = make([]model.Answer, len(docs))
	for i, d := range docs {
		sub.Answers[i] = model.Answer{QuestionIndex: d.QuestionIndex, SelectedOption: d.SelectedOption}
	}
	return sub, nil
}
