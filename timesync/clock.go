// Package timesync provides the virtual clock that drives endpoints, links
// and sessions. Every protocol side runs as a Task: a goroutine that executes
// only while the clock hands control to it. Virtual time advances only when
// all tasks are blocked, so a run is deterministic for a fixed seed.
//
// Clock is not safe for concurrent use. Run, RunUntil and Close must be called
// from a single goroutine; tasks may call any method while they hold control.
package timesync

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/log"
)

// Forever is the horizon of RunUntil when no horizon is set.
const Forever = time.Duration(math.MaxInt64)

var (
	// ErrClosed is returned by blocking operations once the clock is closed.
	ErrClosed = errors.New("clock closed")

	errNoCases = errors.New("select without cases")
)

type Opt func(*Clock)

func WithLogger(logger *zap.Logger) Opt {
	return func(c *Clock) {
		c.logger = logger
	}
}

func WithWallclock(clock clockwork.Clock) Opt {
	return func(c *Clock) {
		c.wallclock = clock
	}
}

// WithPace sets how many wall seconds a virtual second takes.
// Zero runs as fast as possible.
func WithPace(pace float64) Opt {
	return func(c *Clock) {
		c.pace = pace
	}
}

// Clock is a discrete-event scheduler with nanosecond virtual time.
type Clock struct {
	logger    *zap.Logger
	wallclock clockwork.Clock
	pace      float64

	now     time.Duration
	seq     uint64
	events  eventQueue
	yield   chan struct{}
	blocked map[*Task]struct{}
	live    int
	closed  bool
	err     error
}

func New(opts ...Opt) *Clock {
	c := &Clock{
		logger:    zap.NewNop(),
		wallclock: clockwork.NewRealClock(),
		yield:     make(chan struct{}),
		blocked:   make(map[*Task]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Schedule runs fn at virtual time at. Events scheduled for the same instant
// run in the order they were scheduled. Times in the past are clamped to now.
func (c *Clock) Schedule(at time.Duration, fn func()) {
	if at < c.now {
		at = c.now
	}
	c.seq++
	heap.Push(&c.events, &event{at: at, seq: c.seq, fn: fn})
}

// After runs fn once d has elapsed.
func (c *Clock) After(d time.Duration, fn func()) {
	c.Schedule(c.now+d, fn)
}

// Pending returns the number of scheduled events.
func (c *Clock) Pending() int {
	return len(c.events)
}

// Tasks returns the number of started tasks that have not returned yet.
func (c *Clock) Tasks() int {
	return c.live
}

// Go starts fn as a task at the current virtual time.
func (c *Clock) Go(name string, fn func(*Task) error) *Task {
	t := &Task{
		clock: c,
		name:  name,
		wake:  make(chan struct{}),
		done:  NewSignal[error](c),
	}
	c.Schedule(c.now, func() { c.start(t, fn) })
	return t
}

func (c *Clock) start(t *Task, fn func(*Task) error) {
	c.live++
	tasksRunning.Inc()
	go func() {
		err := fn(t)
		c.finish(t, err)
		c.yield <- struct{}{}
	}()
	<-c.yield
}

func (c *Clock) finish(t *Task, err error) {
	c.live--
	tasksRunning.Dec()
	t.done.Raise(err)
	if err == nil || errors.Is(err, ErrClosed) {
		return
	}
	c.logger.Debug("task failed",
		zap.String("task", t.name),
		log.ZVirtual("at", c.now),
		zap.Error(err),
	)
	if c.err == nil {
		c.err = fmt.Errorf("task %s: %w", t.name, err)
	}
}

func (c *Clock) resume(t *Task) {
	if _, ok := c.blocked[t]; !ok {
		return
	}
	delete(c.blocked, t)
	t.wake <- struct{}{}
	<-c.yield
}

// Run processes events until none are left, a task fails or ctx is done.
func (c *Clock) Run(ctx context.Context) error {
	return c.RunUntil(ctx, Forever)
}

// RunUntil processes events scheduled no later than until. The first task
// error stops the run and is returned.
func (c *Clock) RunUntil(ctx context.Context, until time.Duration) error {
	if c.closed {
		return ErrClosed
	}
	wallStart, virtStart := c.wallclock.Now(), c.now
	for c.err == nil && len(c.events) > 0 {
		next := c.events[0]
		if next.at > until {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.wait(ctx, wallStart, virtStart, next.at); err != nil {
			return err
		}
		heap.Pop(&c.events)
		if next.at > c.now {
			c.now = next.at
			virtualTime.Set(float64(c.now))
		}
		next.fn()
		eventsProcessed.Inc()
	}
	if c.err != nil {
		return c.err
	}
	if until != Forever && c.now < until {
		c.now = until
	}
	return nil
}

func (c *Clock) wait(ctx context.Context, wallStart time.Time, virtStart, at time.Duration) error {
	if c.pace <= 0 || at <= c.now {
		return nil
	}
	target := wallStart.Add(time.Duration(float64(at-virtStart) * c.pace))
	d := target.Sub(c.wallclock.Now())
	if d <= 0 {
		return nil
	}
	select {
	case <-c.wallclock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close wakes every blocked task with ErrClosed and drops pending events.
// Tasks that were scheduled but never started are discarded.
func (c *Clock) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for len(c.blocked) > 0 {
		for t := range c.blocked {
			c.resume(t)
			break
		}
	}
	c.events = nil
}
