package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QuotaConsumeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_quota_consume_total",
			Help: "Quota consume attempts by outcome (granted, denied, error).",
		},
		[]string{"outcome"},
	)

	QuotaRestoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_quota_restore_total",
			Help: "Compensating restores by outcome (restored, capped, error).",
		},
		[]string{"outcome"},
	)

	QuotaResetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_quota_reset_total",
			Help: "Daily quota rollovers performed.",
		},
	)

	UsersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_users_created_total",
			Help: "Users created on first interaction.",
		},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_provider_requests_total",
			Help: "AI provider calls by status (ok, error).",
		},
		[]string{"status"},
	)

	ProviderRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_provider_request_duration_seconds",
			Help:    "AI provider call latency in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
	)

	FloodRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_flood_rejected_total",
			Help: "Messages dropped by per-chat flood control.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		QuotaConsumeTotal,
		QuotaRestoreTotal,
		QuotaResetTotal,
		UsersCreatedTotal,
		ProviderRequestsTotal,
		ProviderRequestDuration,
		FloodRejectedTotal,
	)
}
