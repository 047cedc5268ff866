package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"school-management-platform/internal/infra/metrics"
	red "school-management-platform/internal/infra/redis"
	"school-management-platform/internal/usecase"
)

const sweepLockKey = "renewal_reminder:sweep"

// RenewalReminderWorker periodically surfaces subscriptions whose end date
// is approaching. It only observes: a reminder never changes a
// subscription's status or plan. Status transitions come exclusively from
// billing webhook events.
type RenewalReminderWorker struct {
	interval time.Duration
	days     int
	subUC    usecase.SubscriptionUseCase
	locker   red.Locker
	dedupe   *red.RateLimiter
	log      *zerolog.Logger
}

func NewRenewalReminderWorker(interval time.Duration, days int, subUC usecase.SubscriptionUseCase, locker red.Locker, dedupe *red.RateLimiter, logger *zerolog.Logger) *RenewalReminderWorker {
	compLog := logger.With().Str("component", "RenewalReminderWorker").Logger()
	return &RenewalReminderWorker{
		interval: interval,
		days:     days,
		subUC:    subUC,
		locker:   locker,
		dedupe:   dedupe,
		log:      &compLog,
	}
}

func (w *RenewalReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Int("days", w.days).Msg("starting renewal reminder worker")
	// run once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping renewal reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RenewalReminderWorker) sweep(ctx context.Context) {
	// one sweep across all instances at a time
	token, err := w.locker.TryLock(ctx, sweepLockKey, w.interval)
	if err != nil {
		w.log.Debug().Msg("sweep already running elsewhere")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, sweepLockKey, token) }()

	subs, err := w.subUC.EndingWithin(ctx, w.days)
	if err != nil {
		w.log.Error().Err(err).Msg("renewal sweep failed")
		return
	}

	reminded := 0
	for _, sub := range subs {
		// at most one reminder per tenant per day
		key := fmt.Sprintf("renewal_reminder:sent:%s", sub.TenantID)
		ok, err := w.dedupe.Allow(ctx, key, 1, 24*time.Hour)
		if err != nil {
			w.log.Warn().Err(err).Str("tenant_id", sub.TenantID).Msg("reminder dedupe unavailable")
			continue
		}
		if !ok {
			continue
		}
		ev := w.log.Info().
			Str("tenant_id", sub.TenantID).
			Str("plan", string(sub.Plan))
		if sub.EndDate != nil {
			ev = ev.Time("end_date", *sub.EndDate)
		}
		ev.Msg("subscription ending soon")
		reminded++
	}
	if reminded > 0 {
		metrics.IncRenewalReminders(reminded)
	}
}
