package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"school-management-platform/internal/domain/model"
	"school-management-platform/internal/domain/ports/repository"
	"school-management-platform/internal/infra/metrics"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (byStatus map[model.SubscriptionStatus]int, byPlan map[model.PlanTier]int, err error)
	Revenue(ctx context.Context) (week int64, month int64, year int64, err error)
}

type statsUC struct {
	subs   repository.SubscriptionRepository
	events repository.BillingEventRepository
	log    *zerolog.Logger
}

func NewStatsUseCase(subs repository.SubscriptionRepository, events repository.BillingEventRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{subs: subs, events: events, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (map[model.SubscriptionStatus]int, map[model.PlanTier]int, error) {
	byStatus, err := s.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, nil, err
	}
	byPlan, err := s.subs.CountByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, nil, err
	}
	metrics.SetSubscriptionsTotal(byStatus)
	return byStatus, byPlan, nil
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	now := time.Now()
	w, err := s.events.SumAmountSince(ctx, repository.NoTX, now.AddDate(0, 0, -7))
	if err != nil {
		return 0, 0, 0, err
	}
	m, err := s.events.SumAmountSince(ctx, repository.NoTX, now.AddDate(0, -1, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := s.events.SumAmountSince(ctx, repository.NoTX, now.AddDate(-1, 0, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	return w, m, y, nil
}
