package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionCols = `id, tenant_id, plan, status, amount, start_date, end_date, payment_ref, subscription_code, last_event_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	// The WHERE clause on the upsert is the ordering check: a row that
	// already carries a newer last_event_at is left untouched, so two
	// concurrent writers cannot regress the state no matter which one
	// commits last. A rejected write surfaces as zero affected rows.
	const q = `
INSERT INTO subscriptions (
  id, tenant_id, plan, status, amount, start_date, end_date, payment_ref, subscription_code, last_event_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (tenant_id) DO UPDATE SET
  plan=$3, status=$4, amount=$5, start_date=$6, end_date=$7, payment_ref=$8, subscription_code=$9, last_event_at=$10, updated_at=$12
WHERE subscriptions.last_event_at IS NULL
   OR ($10::timestamptz IS NOT NULL AND subscriptions.last_event_at <= $10::timestamptz);`

	tag, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.TenantID, s.Plan, s.Status, s.Amount, s.StartDate, s.EndDate,
		s.PaymentRef, s.SubscriptionCode, s.LastEventAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		case isUniqueViolation(err):
			return domain.ErrAlreadyExists
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleBillingEvent
	}
	return nil
}

func (r *subscriptionRepo) FindByTenant(ctx context.Context, tx repository.Tx, tenantID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM subscriptions WHERE tenant_id=$1;`
	return r.queryOne(ctx, tx, q, tenantID)
}

func (r *subscriptionRepo) FindEndingWithin(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE status IN ('active','non_renewing')
   AND end_date IS NOT NULL
   AND end_date > NOW()
   AND end_date <= NOW() + ($1::int * INTERVAL '1 day')
 ORDER BY end_date ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, withinDays)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	const q = `SELECT plan, COUNT(*) FROM subscriptions GROUP BY plan;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.PlanTier]int)
	for rows.Next() {
		var plan string
		var count int
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.PlanTier(plan)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var plan, status string
	if err := row.Scan(&s.ID, &s.TenantID, &plan, &status, &s.Amount, &s.StartDate, &s.EndDate,
		&s.PaymentRef, &s.SubscriptionCode, &s.LastEventAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Plan = model.PlanTier(plan)
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
