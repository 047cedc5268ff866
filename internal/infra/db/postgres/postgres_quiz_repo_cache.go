package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
	"school-management-platform/internal/infra/metrics"
	red "school-management-platform/internal/infra/redis"
)

var _ repository.QuizRepository = (*quizRepoCacheDecorator)(nil)

// quizRepoCacheDecorator caches published quizzes. Every submission grade
// re-reads the quiz, so the read path is hot; drafts keep changing and are
// never cached.
type quizRepoCacheDecorator struct {
	inner repository.QuizRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewQuizRepoCacheDecorator(inner repository.QuizRepository, cache red.RedisClient, ttl time.Duration) repository.QuizRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &quizRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func quizKey(id string) string { return fmt.Sprintf("quiz:%s", id) }

func (d *quizRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quiz, error) {
	// Reads inside a transaction bypass the cache so they see their own writes.
	if tx == nil {
		val, err := d.cache.Get(ctx, quizKey(id))
		if err == nil {
			var quiz model.Quiz
			if json.Unmarshal([]byte(val), &quiz) == nil {
				metrics.IncCacheRequest("quiz", "hit")
				return &quiz, nil
			}
		} else if err != goredis.Nil {
			metrics.IncCacheRequest("quiz", "error")
		}
	}

	metrics.IncCacheRequest("quiz", "miss")
	quiz, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if quiz.IsPublished {
		if bytes, err := json.Marshal(quiz); err == nil {
			_ = d.cache.Set(ctx, quizKey(id), bytes, d.ttl)
		}
	}
	return quiz, nil
}

func (d *quizRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, quiz *model.Quiz) error {
	_ = d.cache.Del(ctx, quizKey(quiz.ID))
	return d.inner.Save(ctx, tx, quiz)
}

// ListByTenant is an authoring view, not a grading hot path; it always
// goes to the database.
func (d *quizRepoCacheDecorator) ListByTenant(ctx context.Context, tx repository.Tx, tenantID string) ([]*model.Quiz, error) {
	return d.inner.ListByTenant(ctx, tx, tenantID)
}
