// Package metrics defines and registers the custom Prometheus metrics of the
// auth API. HTTP-level metrics (latency, status codes) come from the
// echoprometheus middleware; this package covers workflow outcomes only.
//
// All metrics are registered with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Operation label values.
const (
	OpRegister = "register"
	OpLogin    = "login"
)

// AuthAttemptsTotal counts register/login attempts by outcome.
// Labels:
//   - operation: "register" or "login"
//   - outcome: "success" or an error kind ("validation", "conflict", "not_found", "auth", "internal")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "outcome"},
)

// PasswordHashDuration measures bcrypt hash and compare calls.
// Label:
//   - operation: "hash" or "compare"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of bcrypt hash and compare operations.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"operation"},
)

// RegistrationLockTotal counts registration lock decisions.
// Label:
//   - result: "acquired", "contended" or "error"
var RegistrationLockTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_lock_total",
		Help:      "Total number of registration lock attempts, by result.",
	},
	[]string{"result"},
)
