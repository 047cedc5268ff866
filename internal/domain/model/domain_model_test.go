//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"school-management-platform/internal/domain"
)

// --- Catalog Tests ---

func TestCatalogResolve(t *testing.T) {
	cat := DefaultCatalog()

	t.Run("known tier resolves to its own entry", func(t *testing.T) {
		p, known := cat.Resolve(TierPremium)
		if !known {
			t.Fatal("expected premium to be a known tier")
		}
		if p.Tier != TierPremium {
			t.Errorf("expected tier premium, got %s", p.Tier)
		}
		if !p.HasFeature(FeatureAIMarking) {
			t.Error("expected premium to include aiMarking")
		}
	})

	t.Run("unknown tier resolves to the lowest tier", func(t *testing.T) {
		p, known := cat.Resolve(PlanTier("enterprise-typo"))
		if known {
			t.Fatal("expected unknown tier to report known=false")
		}
		if p.Tier != LowestTier {
			t.Errorf("expected fallback to %s, got %s", LowestTier, p.Tier)
		}
		if p.HasFeature(FeatureAIMarking) {
			t.Error("fallback entry must never grant premium features")
		}
		free, _ := cat.Resolve(TierFree)
		if p.MaxStudents != free.MaxStudents || p.MaxStaff != free.MaxStaff {
			t.Error("unknown tier must carry exactly the lowest tier's limits")
		}
	})

	t.Run("free tier has no aiMarking", func(t *testing.T) {
		p, _ := cat.Resolve(TierFree)
		if p.HasFeature(FeatureAIMarking) {
			t.Error("free tier must not include aiMarking")
		}
	})
}

// --- Subscription Tests ---

func TestNewSubscription(t *testing.T) {
	s, err := NewSubscription("sub-1", "tenant-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if s.Plan != LowestTier {
		t.Errorf("registration must start on the lowest tier, got %s", s.Plan)
	}
	if s.Status != SubscriptionStatusActive {
		t.Errorf("registration must start active, got %s", s.Status)
	}

	if _, err := NewSubscription("", "tenant-1"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty id, got %v", err)
	}
}

func TestSubscriptionEffectiveTier(t *testing.T) {
	cases := []struct {
		status SubscriptionStatus
		want   PlanTier
	}{
		{SubscriptionStatusActive, TierPremium},
		{SubscriptionStatusAttention, TierPremium},
		{SubscriptionStatusNonRenewing, TierPremium},
		{SubscriptionStatusPastDue, LowestTier},
		{SubscriptionStatusCancelled, LowestTier},
	}
	for _, c := range cases {
		s := &Subscription{Plan: TierPremium, Status: c.status}
		if got := s.EffectiveTier(); got != c.want {
			t.Errorf("status %s: expected effective tier %s, got %s", c.status, c.want, got)
		}
	}

	var nilSub *Subscription
	if nilSub.EffectiveTier() != LowestTier {
		t.Error("absent subscription must resolve to the lowest tier")
	}
}

func TestSubscriptionApply(t *testing.T) {
	newSub := func() *Subscription {
		s, _ := NewSubscription("sub-1", "tenant-1")
		return s
	}

	t.Run("applies status and plan", func(t *testing.T) {
		s := newSub()
		ev := &BillingEvent{
			TenantID:       "tenant-1",
			Type:           "charge.success",
			Plan:           TierStandard,
			Status:         SubscriptionStatusActive,
			Amount:         250000,
			TransactionRef: "txn-1",
			OccurredAt:     time.Now(),
		}
		if err := s.Apply(ev); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if s.Plan != TierStandard || s.Amount != 250000 {
			t.Errorf("plan/amount not applied: %s %d", s.Plan, s.Amount)
		}
		if s.PaymentRef != "txn-1" {
			t.Errorf("expected payment ref txn-1, got %s", s.PaymentRef)
		}
	})

	t.Run("rejects missing transaction reference", func(t *testing.T) {
		s := newSub()
		ev := &BillingEvent{TenantID: "tenant-1", Status: SubscriptionStatusCancelled}
		if err := s.Apply(ev); !errors.Is(err, domain.ErrMissingTransaction) {
			t.Errorf("expected ErrMissingTransaction, got %v", err)
		}
	})

	t.Run("rejects out-of-order event", func(t *testing.T) {
		s := newSub()
		later := &BillingEvent{
			TenantID: "tenant-1", Status: SubscriptionStatusCancelled,
			TransactionRef: "txn-2", OccurredAt: time.Now(),
		}
		if err := s.Apply(later); err != nil {
			t.Fatalf("apply later: %v", err)
		}
		earlier := &BillingEvent{
			TenantID: "tenant-1", Status: SubscriptionStatusActive,
			TransactionRef: "txn-1", OccurredAt: time.Now().Add(-time.Hour),
		}
		if err := s.Apply(earlier); !errors.Is(err, domain.ErrStaleBillingEvent) {
			t.Errorf("expected ErrStaleBillingEvent, got %v", err)
		}
		if s.Status != SubscriptionStatusCancelled {
			t.Errorf("stale event must not regress status, got %s", s.Status)
		}
	})

	t.Run("cancelled can return to active on renewal", func(t *testing.T) {
		s := newSub()
		s.Status = SubscriptionStatusCancelled
		ev := &BillingEvent{
			TenantID: "tenant-1", Status: SubscriptionStatusActive, Plan: TierBasic,
			TransactionRef: "txn-3", OccurredAt: time.Now(),
		}
		if err := s.Apply(ev); err != nil {
			t.Fatalf("apply renewal: %v", err)
		}
		if s.Status != SubscriptionStatusActive {
			t.Errorf("expected active after renewal, got %s", s.Status)
		}
	})
}

// --- Quiz Tests ---

func validQuestions() []Question {
	return []Question{
		{Text: "2+2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"},
		{Text: "capital of France?", Options: []string{"Paris", "Lyon"}, CorrectAnswer: "Paris"},
	}
}

func TestNewQuiz(t *testing.T) {
	t.Run("valid quiz", func(t *testing.T) {
		q, err := NewQuiz("quiz-1", "tenant-1", "video-9", "teacher-1", "Arithmetic", validQuestions(), 10*time.Minute, false)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if q.IsPublished {
			t.Error("expected unpublished quiz")
		}
	})

	t.Run("zero questions rejected", func(t *testing.T) {
		_, err := NewQuiz("quiz-1", "tenant-1", "video-9", "teacher-1", "Empty", nil, 10*time.Minute, true)
		if !errors.Is(err, domain.ErrEmptyQuiz) {
			t.Errorf("expected ErrEmptyQuiz, got %v", err)
		}
	})

	t.Run("correct answer must be among options", func(t *testing.T) {
		qs := []Question{{Text: "2+2?", Options: []string{"3", "5"}, CorrectAnswer: "4"}}
		_, err := NewQuiz("quiz-1", "tenant-1", "video-9", "teacher-1", "Broken", qs, 10*time.Minute, false)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestQuizPublish(t *testing.T) {
	q, err := NewQuiz("quiz-1", "tenant-1", "video-9", "teacher-1", "Arithmetic", validQuestions(), 10*time.Minute, false)
	if err != nil {
		t.Fatalf("new quiz: %v", err)
	}
	if err := q.Publish(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !q.IsPublished {
		t.Error("expected published quiz")
	}

	q.Questions = nil
	if err := q.Publish(); !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Errorf("expected ErrEmptyQuiz for emptied quiz, got %v", err)
	}
}

// --- Grading Tests ---

func oneQuestionQuiz() *Quiz {
	q, _ := NewQuiz("quiz-1", "tenant-1", "video-9", "teacher-1", "Arithmetic",
		[]Question{{Text: "2+2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"}},
		5*time.Minute, true)
	return q
}

func TestGradeSubmission(t *testing.T) {
	t.Run("correct value scores 100", func(t *testing.T) {
		score, err := GradeSubmission(oneQuestionQuiz(), []Answer{{QuestionIndex: 0, SelectedOption: 1}})
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if score != 100 {
			t.Errorf("expected 100, got %d", score)
		}
	})

	t.Run("wrong option scores 0", func(t *testing.T) {
		score, err := GradeSubmission(oneQuestionQuiz(), []Answer{{QuestionIndex: 0, SelectedOption: 0}})
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if score != 0 {
			t.Errorf("expected 0, got %d", score)
		}
	})

	t.Run("omitted answer scores 0", func(t *testing.T) {
		score, err := GradeSubmission(oneQuestionQuiz(), nil)
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if score != 0 {
			t.Errorf("expected 0, got %d", score)
		}
	})

	t.Run("out-of-range option rejects whole submission", func(t *testing.T) {
		_, err := GradeSubmission(oneQuestionQuiz(), []Answer{{QuestionIndex: 0, SelectedOption: 3}})
		if !errors.Is(err, domain.ErrMalformedSubmission) {
			t.Errorf("expected ErrMalformedSubmission, got %v", err)
		}
	})

	t.Run("nonexistent question index rejected", func(t *testing.T) {
		_, err := GradeSubmission(oneQuestionQuiz(), []Answer{{QuestionIndex: 5, SelectedOption: 0}})
		if !errors.Is(err, domain.ErrMalformedSubmission) {
			t.Errorf("expected ErrMalformedSubmission, got %v", err)
		}
	})

	t.Run("duplicate question index rejected", func(t *testing.T) {
		_, err := GradeSubmission(oneQuestionQuiz(), []Answer{
			{QuestionIndex: 0, SelectedOption: 0},
			{QuestionIndex: 0, SelectedOption: 1},
		})
		if !errors.Is(err, domain.ErrMalformedSubmission) {
			t.Errorf("expected ErrMalformedSubmission, got %v", err)
		}
	})

	t.Run("grading is idempotent", func(t *testing.T) {
		quiz, _ := NewQuiz("quiz-2", "tenant-1", "video-9", "teacher-1", "Mixed", validQuestions(), 5*time.Minute, true)
		answers := []Answer{{QuestionIndex: 0, SelectedOption: 1}, {QuestionIndex: 1, SelectedOption: 1}}
		first, err := GradeSubmission(quiz, answers)
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		second, err := GradeSubmission(quiz, answers)
		if err != nil {
			t.Fatalf("grade again: %v", err)
		}
		if first != second {
			t.Errorf("expected identical score, got %d then %d", first, second)
		}
		if first != 50 {
			t.Errorf("expected 50 for one of two correct, got %d", first)
		}
	})

	t.Run("rounding", func(t *testing.T) {
		// 2 of 3 correct -> 66.67 -> 67
		qs := []Question{
			{Text: "a", Options: []string{"x", "y"}, CorrectAnswer: "x"},
			{Text: "b", Options: []string{"x", "y"}, CorrectAnswer: "x"},
			{Text: "c", Options: []string{"x", "y"}, CorrectAnswer: "x"},
		}
		quiz, _ := NewQuiz("quiz-3", "tenant-1", "video-9", "teacher-1", "Rounding", qs, 5*time.Minute, true)
		score, err := GradeSubmission(quiz, []Answer{
			{QuestionIndex: 0, SelectedOption: 0},
			{QuestionIndex: 1, SelectedOption: 0},
			{QuestionIndex: 2, SelectedOption: 1},
		})
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if score != 67 {
			t.Errorf("expected 67, got %d", score)
		}
	})
}
