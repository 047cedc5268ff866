package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
	"school-management-platform/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase owns the tenant subscription lifecycle. Status and
// plan move only through ApplyBillingEvent; nothing else in the process
// mutates a subscription after registration.
type SubscriptionUseCase interface {
	// Register creates the registration-time record: lowest tier, active.
	Register(ctx context.Context, tenantID string) (*model.Subscription, error)
	// Get returns the tenant's subscription record.
	Get(ctx context.Context, tenantID string) (*model.Subscription, error)
	// ApplyBillingEvent folds one inbound billing event into the tenant's
	// record. Replays of an already-seen transaction reference are a
	// successful no-op (applied=false). Out-of-order deliveries never
	// regress newer state.
	ApplyBillingEvent(ctx context.Context, ev *model.BillingEvent) (applied bool, err error)
	// EndingWithin lists active subscriptions whose end date falls inside
	// the window; used by the renewal reminder worker.
	EndingWithin(ctx context.Context, withinDays int) ([]*model.Subscription, error)
}

type subscriptionUC struct {
	subs   repository.SubscriptionRepository
	events repository.BillingEventRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, events repository.BillingEventRepository, tm repository.TransactionManager, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, events: events, tm: tm, log: logger}
}

func (u *subscriptionUC) Register(ctx context.Context, tenantID string) (*model.Subscription, error) {
	sub, err := model.NewSubscription(uuid.NewString(), tenantID)
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	u.log.Info().Str("tenant_id", tenantID).Str("subscription_id", sub.ID).Msg("tenant registered on lowest tier")
	return sub, nil
}

func (u *subscriptionUC) Get(ctx context.Context, tenantID string) (*model.Subscription, error) {
	return u.subs.FindByTenant(ctx, repository.NoTX, tenantID)
}

func (u *subscriptionUC) ApplyBillingEvent(ctx context.Context, ev *model.BillingEvent) (bool, error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}
	ev.ID = uuid.NewString()
	ev.ReceivedAt = time.Now()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = ev.ReceivedAt
	}

	applied := false
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The event trail is the idempotency ledger: the unique
		// transaction reference makes the replay a clean insert conflict.
		if err := u.events.Insert(ctx, tx, ev); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				metrics.IncWebhookEvent(ev.Type, "replay")
				u.log.Info().Str("transaction_ref", ev.TransactionRef).Str("tenant_id", ev.TenantID).
					Msg("billing event replayed; no-op")
				return nil
			}
			return err
		}

		sub, err := u.subs.FindByTenant(ctx, tx, ev.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoSubscription
			}
			return err
		}
		if err := sub.Apply(ev); err != nil {
			if errors.Is(err, domain.ErrStaleBillingEvent) {
				// Recorded in the trail, but the state stays newer.
				metrics.IncWebhookEvent(ev.Type, "stale")
				u.log.Warn().Str("transaction_ref", ev.TransactionRef).Str("tenant_id", ev.TenantID).
					Msg("billing event older than applied state; state unchanged")
				return nil
			}
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			if errors.Is(err, domain.ErrStaleBillingEvent) {
				// A concurrent event with a newer occurred_at won the
				// write; this one stays recorded but unapplied.
				metrics.IncWebhookEvent(ev.Type, "stale")
				u.log.Warn().Str("transaction_ref", ev.TransactionRef).Str("tenant_id", ev.TenantID).
					Msg("billing event lost write race to newer state; state unchanged")
				return nil
			}
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		metrics.IncWebhookEvent(ev.Type, "error")
		return false, err
	}
	if applied {
		metrics.IncWebhookEvent(ev.Type, "applied")
		u.log.Info().Str("tenant_id", ev.TenantID).Str("transaction_ref", ev.TransactionRef).
			Str("status", string(ev.Status)).Str("plan", string(ev.Plan)).Msg("billing event applied")
	}
	return applied, nil
}

func (u *subscriptionUC) EndingWithin(ctx context.Context, withinDays int) ([]*model.Subscription, error) {
	return u.subs.FindEndingWithin(ctx, repository.NoTX, withinDays)
}
