package model

import (
	"time"

	"school-management-platform/internal/domain"
)

// Question is one objective question: ordered option values and the
// designated correct value. Correctness is decided by value, not by
// option position.
type Question struct {
	Text          string
	Options       []string
	CorrectAnswer string
}

func (q Question) validate() error {
	if q.Text == "" || len(q.Options) < 2 {
		return domain.ErrInvalidArgument
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	// the designated correct value must be one of the options
	return domain.ErrInvalidArgument
}

// Quiz is an ordered set of questions bound to a content unit (video or
// learning material) and owned by the teacher who created it.
type Quiz struct {
	ID          string // UUID
	TenantID    string
	MaterialRef string // owning content unit
	TeacherID   string
	Title       string
	Questions   []Question
	Duration    time.Duration
	IsPublished bool
	CreatedAt   time.Time
}

// NewQuiz validates and constructs a quiz. A quiz with zero questions is
// rejected here so an unpublishable (and ungradeable) quiz can never be
// persisted.
func NewQuiz(id, tenantID, materialRef, teacherID, title string, questions []Question, duration time.Duration, publish bool) (*Quiz, error) {
	if id == "" || tenantID == "" || teacherID == "" || title == "" || duration <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuiz
	}
	for _, q := range questions {
		if err := q.validate(); err != nil {
			return nil, err
		}
	}
	return &Quiz{
		ID:          id,
		TenantID:    tenantID,
		MaterialRef: materialRef,
		TeacherID:   teacherID,
		Title:       title,
		Questions:   questions,
		Duration:    duration,
		IsPublished: publish,
		CreatedAt:   time.Now(),
	}, nil
}

// Publish marks the quiz visible to students. Empty quizzes cannot be
// published: scoring them would divide by zero.
func (q *Quiz) Publish() error {
	if len(q.Questions) == 0 {
		return domain.ErrEmptyQuiz
	}
	q.IsPublished = true
	return nil
}
