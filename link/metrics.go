package link

import (
	"github.com/entanglenet/go-repeater/metrics"
)

const subsystem = "link"

var (
	pairsEmitted = metrics.NewCounter(
		"pairs",
		subsystem,
		"number of pairs emitted by sources",
		[]string{},
	).WithLabelValues()

	pairsFlipped = metrics.NewCounter(
		"pairs_flipped",
		subsystem,
		"number of emitted pairs that carry a bit-flip error",
		[]string{},
	).WithLabelValues()

	halves = metrics.NewCounter(
		"halves",
		subsystem,
		"number of emitted halves by fate",
		[]string{"fate"},
	)
	halvesSent = halves.WithLabelValues("sent")
	halvesLost = halves.WithLabelValues("lost")

	sourceSwitches = metrics.NewCounter(
		"source_switches",
		subsystem,
		"number of times a source was switched",
		[]string{"state"},
	)
	sourceOn  = sourceSwitches.WithLabelValues("on")
	sourceOff = sourceSwitches.WithLabelValues("off")

	classicalBytes = metrics.NewCounter(
		"classical_bytes",
		subsystem,
		"number of bytes sent over classical channels",
		[]string{},
	).WithLabelValues()
)
