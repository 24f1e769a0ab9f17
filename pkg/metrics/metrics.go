package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamboshop_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// VerificationCodes counts verification-code operations by purpose and
	// outcome (created|consumed|expired|not_found|conflict).
	VerificationCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamboshop_verification_codes_total",
			Help: "Total number of verification code operations",
		},
		[]string{"purpose", "result"},
	)

	// BlacklistedTokens tracks tokens revoked via logout.
	BlacklistedTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamboshop_blacklisted_tokens_total",
			Help: "Total number of blacklisted token pairs",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamboshop_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
