package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		featureChecksTotal,
		quotaChecksTotal,
		unknownPlanTotal,
	)
}

var (
	featureChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_feature_checks_total",
			Help: "Feature gate evaluations by feature and outcome.",
		},
		[]string{"feature", "allowed"},
	)

	quotaChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_quota_checks_total",
			Help: "Quota gate evaluations by resource kind and outcome.",
		},
		[]string{"resource", "allowed"},
	)

	unknownPlanTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_unknown_plan_total",
			Help: "Subscriptions whose recorded tier is absent from the catalog (resolved as lowest tier).",
		},
		[]string{"tier"},
	)
)

func IncFeatureCheck(feature string, allowed bool) {
	featureChecksTotal.WithLabelValues(norm(feature), boolLabel(allowed)).Inc()
}

func IncQuotaCheck(resource string, allowed bool) {
	quotaChecksTotal.WithLabelValues(norm(resource), boolLabel(allowed)).Inc()
}

func IncUnknownPlan(tier string) {
	unknownPlanTotal.WithLabelValues(norm(tier)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
