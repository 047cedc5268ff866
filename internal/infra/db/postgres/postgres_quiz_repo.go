package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

var _ repository.QuizRepository = (*quizRepo)(nil)

type quizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *quizRepo {
	return &quizRepo{pool: pool}
}

// questionDoc is the JSONB shape questions are stored as. Kept separate
// from the domain type so renames there never silently change stored rows.
type questionDoc struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (r *quizRepo) Save(ctx context.Context, tx repository.Tx, quiz *model.Quiz) error {
	docs := make([]questionDoc, len(quiz.Questions))
	for i, q := range quiz.Questions {
		docs[i] = questionDoc{Text: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return domain.ErrOperationFailed
	}

	const q = `
INSERT INTO quizzes (
  id, tenant_id, material_ref, teacher_id, title, questions, duration_seconds, is_published, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  title=$5, questions=$6, duration_seconds=$7, is_published=$8;`

	_, err = execSQL(ctx, r.pool, tx, q,
		quiz.ID, quiz.TenantID, quiz.MaterialRef, quiz.TeacherID, quiz.Title,
		payload, int(quiz.Duration.Seconds()), quiz.IsPublished, quiz.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *quizRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quiz, error) {
	const q = `
SELECT id, tenant_id, material_ref, teacher_id, title, questions, duration_seconds, is_published, created_at
  FROM quizzes WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanQuiz(row)
}

func (r *quizRepo) ListByTenant(ctx context.Context, tx repository.Tx, tenantID string) ([]*model.Quiz, error) {
	const q = `
SELECT id, tenant_id, material_ref, teacher_id, title, questions, duration_seconds, is_published, created_at
  FROM quizzes WHERE tenant_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, tenantID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	var payload []byte
	var durationSeconds int
	if err := row.Scan(&quiz.ID, &quiz.TenantID, &quiz.MaterialRef, &quiz.TeacherID,
		&quiz.Title, &payload, &durationSeconds, &quiz.IsPublished, &quiz.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var docs []questionDoc
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	quiz.Questions = make([]model.Question, len(docs))
	for i, d := range docs {
		quiz.Questions[i] = model.Question{Text: d.Text, Options: d.Options, CorrectAnswer: d.CorrectAnswer}
	}
	quiz.Duration = time.Duration(durationSeconds) * time.Second
	return quiz, nil
}
