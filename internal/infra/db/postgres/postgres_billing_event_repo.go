package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

var _ repository.BillingEventRepository = (*billingEventRepo)(nil)

type billingEventRepo struct {
	pool *pgxpool.Pool
}

func NewBillingEventRepo(pool *pgxpool.Pool) *billingEventRepo {
	return &billingEventRepo{pool: pool}
}

// Insert records one billing event. The transaction_ref column carries a
// UNIQUE constraint; a second insert with the same reference returns
// domain.ErrAlreadyExists, which the webhook use case treats as a replay.
func (r *billingEventRepo) Insert(ctx context.Context, tx repository.Tx, ev *model.BillingEvent) error {
	const q = `
INSERT INTO billing_events (
  id, tenant_id, event_type, plan, status, amount, transaction_ref, occurred_at, received_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q,
		ev.ID, ev.TenantID, ev.Type, ev.Plan, ev.Status, ev.Amount,
		ev.TransactionRef, ev.OccurredAt, ev.ReceivedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadyExists
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *billingEventRepo) FindByRef(ctx context.Context, tx repository.Tx, transactionRef string) (*model.BillingEvent, error) {
	const q = `
SELECT id, tenant_id, event_type, plan, status, amount, transaction_ref, occurred_at, received_at
  FROM billing_events WHERE transaction_ref=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, transactionRef)
	if err != nil {
		return nil, err
	}
	ev := &model.BillingEvent{}
	var plan, status string
	if err := row.Scan(&ev.ID, &ev.TenantID, &ev.Type, &plan, &status, &ev.Amount,
		&ev.TransactionRef, &ev.OccurredAt, &ev.ReceivedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	ev.Plan = model.PlanTier(plan)
	ev.Status = model.SubscriptionStatus(status)
	return ev, nil
}

func (r *billingEventRepo) SumAmountSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount), 0)
  FROM billing_events
 WHERE event_type IN ('charge.success','subscription.create')
   AND occurred_at >= $1;`

	row, err := pickRow(ctx, r.pool, tx, q, since)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return total, nil
}
