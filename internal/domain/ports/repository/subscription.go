package repository

import (
	"context"
	"time"

	"school-management-platform/internal/domain/model"
)

// SubscriptionRepository is the port for tenant subscription records.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByTenant(ctx context.Context, tx Tx, tenantID string) (*model.Subscription, error)
	FindEndingWithin(ctx context.Context, tx Tx, withinDays int) ([]*model.Subscription, error)

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
	CountByPlan(ctx context.Context, tx Tx) (map[model.PlanTier]int, error)
}

// BillingEventRepository persists the inbound billing event trail.
// Insert must fail with domain.ErrAlreadyExists for a transaction
// reference that was already recorded; that failure is the idempotency
// signal for webhook replays.
type BillingEventRepository interface {
	Insert(ctx context.Context, tx Tx, ev *model.BillingEvent) error
	FindByRef(ctx context.Context, tx Tx, transactionRef string) (*model.BillingEvent, error)
	SumAmountSince(ctx context.Context, tx Tx, since time.Time) (int64, error)
}
