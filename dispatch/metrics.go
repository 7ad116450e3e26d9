package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/entanglenet/go-repeater/metrics"
)

const namespace = "dispatch"

var (
	sessionsLaunched = metrics.NewCounter(
		"launched",
		namespace,
		"number of sessions launched",
		[]string{},
	).WithLabelValues()

	sessionsActive = metrics.NewGauge(
		"active",
		namespace,
		"number of sessions in progress",
		[]string{},
	).WithLabelValues()

	sessionDuration = metrics.NewHistogramWithBuckets(
		"session_seconds",
		namespace,
		"virtual duration of sessions by status",
		[]string{"status"},
		prometheus.ExponentialBuckets(1e-6, 2, 16),
	)
)
