package entangle

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/entanglenet/go-repeater/metrics"
)

const namespace = "entangle"

var (
	roundCounter = metrics.NewCounter(
		"rounds",
		namespace,
		"number of attempt rounds by outcome",
		[]string{"outcome"},
	)
	roundsMatched    = roundCounter.WithLabelValues("matched")
	roundsMismatched = roundCounter.WithLabelValues("mismatched")
	roundsEmpty      = roundCounter.WithLabelValues("empty")

	sessionCounter = metrics.NewCounter(
		"sessions",
		namespace,
		"number of sessions at different stages",
		[]string{"stage"},
	)
	sessionStarted   = sessionCounter.WithLabelValues("started")
	sessionDelivered = sessionCounter.WithLabelValues(StatusDelivered.String())
	sessionAborted   = sessionCounter.WithLabelValues(StatusAborted.String())
	sessionExhausted = sessionCounter.WithLabelValues(StatusExhausted.String())

	violations = metrics.NewCounter(
		"violations",
		namespace,
		"number of protocol violations. should remain at zero",
		[]string{},
	).WithLabelValues()

	generationLatency = metrics.NewHistogramWithBuckets(
		"generation_seconds",
		namespace,
		"virtual time spent to obtain a shared resource",
		[]string{"slot"},
		prometheus.ExponentialBuckets(1e-6, 2, 16),
	)
	generationRounds = metrics.NewHistogramWithBuckets(
		"generation_rounds",
		namespace,
		"number of rounds needed to obtain a shared resource",
		[]string{},
		prometheus.ExponentialBuckets(1, 2, 10),
	).WithLabelValues()

	fidelity = metrics.NewHistogramWithBuckets(
		"fidelity",
		namespace,
		"fidelity of delivered states",
		[]string{},
		prometheus.LinearBuckets(0, 0.25, 5),
	).WithLabelValues()
)
