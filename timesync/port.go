package timesync

import (
	"slices"
	"time"
)

// Mode selects what a port does with a value nobody waits for.
type Mode uint8

const (
	// Buffered ports queue values in FIFO order.
	Buffered Mode = iota
	// Edge ports only notify a task that is waiting at delivery time.
	// Values delivered without a waiter are lost.
	Edge
)

func (m Mode) String() string {
	if m == Edge {
		return "edge"
	}
	return "buffered"
}

// Port is a named input of an endpoint.
type Port[T any] struct {
	clock   *Clock
	name    string
	mode    Mode
	queue   []T
	waiters []*RecvCase[T]
	dropped int
}

func NewPort[T any](c *Clock, name string, mode Mode) *Port[T] {
	return &Port[T]{clock: c, name: name, mode: mode}
}

func (p *Port[T]) Name() string {
	return p.name
}

func (p *Port[T]) Mode() Mode {
	return p.mode
}

// Len returns the number of queued values.
func (p *Port[T]) Len() int {
	return len(p.queue)
}

// Dropped returns the number of values lost by an edge port.
func (p *Port[T]) Dropped() int {
	return p.dropped
}

// Deliver hands v to the oldest waiting case, or handles it according to
// the port mode when nobody waits.
func (p *Port[T]) Deliver(v T) {
	if len(p.waiters) > 0 {
		rc := p.waiters[0]
		p.waiters = p.waiters[1:]
		rc.value = v
		rc.fired = true
		rc.w.notify()
		return
	}
	if p.mode == Edge {
		p.dropped++
		portDrops.Inc()
		return
	}
	p.queue = append(p.queue, v)
}

// DeliverAfter delivers v once d has elapsed.
func (p *Port[T]) DeliverAfter(d time.Duration, v T) {
	p.clock.After(d, func() { p.Deliver(v) })
}

// Case returns a receive case for Select.
func (p *Port[T]) Case() *RecvCase[T] {
	return &RecvCase[T]{port: p}
}

// Recv blocks until a value is available.
func (p *Port[T]) Recv(t *Task) (T, error) {
	rc := p.Case()
	if err := t.Select(rc); err != nil {
		var zero T
		return zero, err
	}
	return rc.value, nil
}

// RecvCase receives a single value from a port.
type RecvCase[T any] struct {
	port  *Port[T]
	w     *waiter
	fired bool
	value T
}

func (rc *RecvCase[T]) Fired() bool {
	return rc.fired
}

// Value returns the received value. It is only meaningful when Fired is true.
func (rc *RecvCase[T]) Value() T {
	return rc.value
}

func (rc *RecvCase[T]) arm(w *waiter) bool {
	var zero T
	rc.fired, rc.value = false, zero
	if len(rc.port.queue) > 0 {
		rc.value = rc.port.queue[0]
		rc.port.queue = rc.port.queue[1:]
		rc.fired = true
		return true
	}
	rc.w = w
	rc.port.waiters = append(rc.port.waiters, rc)
	return false
}

func (rc *RecvCase[T]) disarm() {
	if i := slices.Index(rc.port.waiters, rc); i >= 0 {
		rc.port.waiters = slices.Delete(rc.port.waiters, i, i+1)
	}
	rc.w = nil
}
