package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WidgetOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "widgets", Name: "operations_total", Help: "Widget repository operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	UpdateRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "widgets", Name: "update_retries_total", Help: "Update attempts repeated after an etag mismatch."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "widgets", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "widgets", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(WidgetOperations)
	reg.MustRegister(UpdateRetries)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
