package metrics

import (
	"school-management-platform/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		subscriptionsByStatus,
		renewalRemindersTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Inbound billing events by type and outcome (applied/replay/stale/error).",
		},
		[]string{"type", "outcome"},
	)

	subscriptionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of tenant subscriptions by status.",
		},
		[]string{"status"},
	)

	renewalRemindersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_renewal_reminders_total",
			Help: "Renewal reminders recorded by the scheduler.",
		},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncRenewalReminders(count int) {
	renewalRemindersTotal.Add(float64(count))
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPastDue,
		model.SubscriptionStatusAttention,
		model.SubscriptionStatusNonRenewing,
		model.SubscriptionStatusCancelled,
	}
	// absent statuses reset to zero so the gauge never holds a stale count
	for _, status := range statuses {
		subscriptionsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
