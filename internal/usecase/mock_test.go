//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/adapter"
	"school-management-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// -----------------------------
// Transaction manager
// -----------------------------

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// -----------------------------
// Subscription / billing repos
// -----------------------------

type memSubscriptionRepo struct {
	mu       sync.RWMutex
	byTenant map[string]*model.Subscription
	saveErr  error
	onFind   func() // invoked after a FindByTenant snapshot is taken
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{byTenant: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Same ordering check the SQL upsert applies: a row that already
	// carries a newer last_event_at rejects the write.
	if existing, ok := m.byTenant[sub.TenantID]; ok && existing.LastEventAt != nil {
		if sub.LastEventAt == nil || sub.LastEventAt.Before(*existing.LastEventAt) {
			return domain.ErrStaleBillingEvent
		}
	}
	cp := *sub
	m.byTenant[sub.TenantID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByTenant(ctx context.Context, tx repository.Tx, tenantID string) (*model.Subscription, error) {
	m.mu.RLock()
	sub, ok := m.byTenant[tenantID]
	var cp model.Subscription
	if ok {
		cp = *sub
	}
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.onFind != nil {
		m.onFind()
	}
	return &cp, nil
}

func (m *memSubscriptionRepo) FindEndingWithin(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := time.Now().AddDate(0, 0, withinDays)
	var out []*model.Subscription
	for _, sub := range m.byTenant {
		if sub.Status != model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusNonRenewing {
			continue
		}
		if sub.EndDate == nil || sub.EndDate.Before(time.Now()) || sub.EndDate.After(cutoff) {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, sub := range m.byTenant {
		counts[sub.Status]++
	}
	return counts, nil
}

func (m *memSubscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.PlanTier]int)
	for _, sub := range m.byTenant {
		counts[sub.Plan]++
	}
	return counts, nil
}

// seed installs a subscription directly, bypassing the use case.
func (m *memSubscriptionRepo) seed(sub *model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.byTenant[sub.TenantID] = &cp
}

type memBillingEventRepo struct {
	mu    sync.RWMutex
	byRef map[string]*model.BillingEvent
}

func newMemBillingEventRepo() *memBillingEventRepo {
	return &memBillingEventRepo{byRef: make(map[string]*model.BillingEvent)}
}

func (m *memBillingEventRepo) Insert(ctx context.Context, tx repository.Tx, ev *model.BillingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRef[ev.TransactionRef]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *ev
	m.byRef[ev.TransactionRef] = &cp
	return nil
}

func (m *memBillingEventRepo) FindByRef(ctx context.Context, tx repository.Tx, transactionRef string) (*model.BillingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.byRef[transactionRef]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (m *memBillingEventRepo) SumAmountSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, ev := range m.byRef {
		if ev.OccurredAt.Before(since) {
			continue
		}
		if ev.Type != "charge.success" && ev.Type != "subscription.create" {
			continue
		}
		total += ev.Amount
	}
	return total, nil
}

// -----------------------------
// Quiz / submission repos
// -----------------------------

type memQuizRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.Quiz
}

func newMemQuizRepo() *memQuizRepo {
	return &memQuizRepo{byID: make(map[string]*model.Quiz)}
}

func (m *memQuizRepo) Save(ctx context.Context, tx repository.Tx, quiz *model.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *quiz
	m.byID[quiz.ID] = &cp
	return nil
}

func (m *memQuizRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	quiz, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *quiz
	return &cp, nil
}

func (m *memQuizRepo) ListByTenant(ctx context.Context, tx repository.Tx, tenantID string) ([]*model.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Quiz
	for _, quiz := range m.byID {
		if quiz.TenantID == tenantID {
			cp := *quiz
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memSubmissionRepo struct {
	mu     sync.Mutex
	byKey  map[string]*model.Submission // quizID + "|" + studentID
	byID   map[string]*model.Submission
	blockC chan struct{} // when non-nil, Create waits on it (race tests)
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{
		byKey: make(map[string]*model.Submission),
		byID:  make(map[string]*model.Submission),
	}
}

func submissionKey(quizID, studentID string) string { return quizID + "|" + studentID }

func (m *memSubmissionRepo) Create(ctx context.Context, tx repository.Tx, sub *model.Submission) error {
	if m.blockC != nil {
		<-m.blockC
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := submissionKey(sub.QuizID, sub.StudentID)
	if _, ok := m.byKey[key]; ok {
		return domain.ErrDuplicateSubmission
	}
	cp := *sub
	m.byKey[key] = &cp
	m.byID[sub.ID] = &cp
	return nil
}

func (m *memSubmissionRepo) FindByQuizAndStudent(ctx context.Context, tx repository.Tx, quizID, studentID string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.byKey[submissionKey(quizID, studentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *memSubmissionRepo) ListByQuiz(ctx context.Context, tx repository.Tx, quizID string) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Submission
	for _, sub := range m.byKey {
		if sub.QuizID == quizID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubmissionRepo) SetFeedback(ctx context.Context, tx repository.Tx, submissionID, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.byID[submissionID]
	if !ok {
		return domain.ErrNotFound
	}
	sub.Feedback = feedback
	return nil
}

// -----------------------------
// Member repo
// -----------------------------

type memMemberRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{byID: make(map[string]*model.Member)}
}

func (m *memMemberRepo) Save(ctx context.Context, tx repository.Tx, member *model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *member
	m.byID[member.ID] = &cp
	return nil
}

func (m *memMemberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *member
	return &cp, nil
}

func (m *memMemberRepo) CountByRole(ctx context.Context, tx repository.Tx, tenantID string, role model.MemberRole) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, member := range m.byID {
		if member.TenantID == tenantID && member.Role == role {
			count++
		}
	}
	return count, nil
}

// seedMembers installs n members of the given role.
func (m *memMemberRepo) seedMembers(tenantID string, role model.MemberRole, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%s-%d", tenantID, role, len(m.byID))
		m.byID[id] = &model.Member{
			ID: id, TenantID: tenantID, Name: "seeded", Role: role, JoinedAt: time.Now(),
		}
	}
}

// -----------------------------
// Limiter and marker
// -----------------------------

type mockLimiter struct {
	mu      sync.Mutex
	allow   bool
	err     error
	lastKey string
	calls   int
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastKey = key
	return m.allow, m.err
}

type mockMarker struct {
	mu       sync.Mutex
	feedback string
	err      error
	calls    int
	lastSeen adapter.AttemptSummary
}

func (m *mockMarker) Name() string { return "mock" }

func (m *mockMarker) MarkFeedback(ctx context.Context, attempt adapter.AttemptSummary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSeen = attempt
	return m.feedback, m.err
}
