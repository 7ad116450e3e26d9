package timesync

import (
	"github.com/entanglenet/go-repeater/metrics"
)

const subsystem = "clock"

var (
	eventsProcessed = metrics.NewCounter(
		"events",
		subsystem,
		"number of processed clock events",
		[]string{},
	).WithLabelValues()

	virtualTime = metrics.NewGauge(
		"virtual_time_ns",
		subsystem,
		"current virtual time in nanoseconds",
		[]string{},
	).WithLabelValues()

	tasksRunning = metrics.NewGauge(
		"tasks",
		subsystem,
		"number of tasks that have started and not returned",
		[]string{},
	).WithLabelValues()

	portDrops = metrics.NewCounter(
		"port_drops",
		subsystem,
		"number of deliveries to edge-triggered ports without a waiting task",
		[]string{},
	).WithLabelValues()
)
