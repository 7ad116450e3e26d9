package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the content of the default registry to the pushgateway at url once.
// The run is identified by the "run" grouping label.
func Push(ctx context.Context, url, run string) error {
	pusher := push.New(url, "go-repeater").
		Gatherer(prometheus.DefaultGatherer).
		Grouping("run", run)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
