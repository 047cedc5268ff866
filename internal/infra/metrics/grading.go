package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(submissionsTotal, submissionScores, markingFeedbackLatency)
}

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Quiz submissions by outcome (graded/rejected/duplicate).",
		},
		[]string{"outcome"},
	)

	submissionScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_submission_score",
			Help:    "Distribution of persisted submission scores.",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	markingFeedbackLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marking_feedback_latency_ms",
			Help:    "AI marking feedback latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"provider", "success"},
	)
)

func IncSubmissionGraded(outcome string) {
	submissionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveSubmissionScore(score int) {
	submissionScores.Observe(float64(score))
}

func ObserveMarkingLatency(provider string, success bool, ms float64) {
	markingFeedbackLatency.WithLabelValues(norm(provider), boolLabel(success)).Observe(ms)
}
