package timesync

import (
	"time"
)

// Task is a cooperative unit of execution on the clock.
type Task struct {
	clock *Clock
	name  string
	wake  chan struct{}
	done  *Signal[error]
}

func (t *Task) Name() string {
	return t.name
}

// Now returns the current virtual time.
func (t *Task) Now() time.Duration {
	return t.clock.now
}

func (t *Task) Clock() *Clock {
	return t.clock
}

// Done is raised with the value returned by the task function.
func (t *Task) Done() *Signal[error] {
	return t.done
}

// block hands control back to the clock until the task is resumed.
func (t *Task) block() error {
	c := t.clock
	if c.closed {
		return ErrClosed
	}
	c.blocked[t] = struct{}{}
	c.yield <- struct{}{}
	<-t.wake
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Case is a condition that a task can wait on with Select.
type Case interface {
	// Fired reports whether the condition was met in the last Select.
	Fired() bool

	arm(*waiter) bool
	disarm()
}

type waiter struct {
	task     *Task
	notified bool
}

func (w *waiter) notify() {
	if w.notified {
		return
	}
	w.notified = true
	t := w.task
	t.clock.Schedule(t.clock.now, func() { t.clock.resume(t) })
}

// Select blocks until at least one of the cases fires. Every case that fired
// at the same virtual instant reports Fired after Select returns.
func (t *Task) Select(cases ...Case) error {
	if len(cases) == 0 {
		return errNoCases
	}
	w := &waiter{task: t}
	ready := false
	for _, c := range cases {
		if c.arm(w) {
			ready = true
		}
	}
	var err error
	if !ready {
		err = t.block()
	}
	for _, c := range cases {
		c.disarm()
	}
	return err
}

// SleepUntil blocks until virtual time at.
func (t *Task) SleepUntil(at time.Duration) error {
	return t.Select(Deadline(at))
}

// Sleep blocks for d.
func (t *Task) Sleep(d time.Duration) error {
	return t.SleepUntil(t.clock.now + d)
}

// Timer fires once virtual time reaches its deadline. It may be reused
// across several Select calls and is scheduled on the clock only once.
type Timer struct {
	at        time.Duration
	scheduled bool
	expired   bool
	fired     bool
	w         *waiter
}

// Deadline returns a timer for virtual time at.
func Deadline(at time.Duration) *Timer {
	return &Timer{at: at}
}

func (tm *Timer) At() time.Duration {
	return tm.at
}

func (tm *Timer) Fired() bool {
	return tm.fired
}

func (tm *Timer) arm(w *waiter) bool {
	tm.fired = false
	c := w.task.clock
	if tm.expired || tm.at <= c.now {
		tm.expired = true
		tm.fired = true
		return true
	}
	tm.w = w
	if !tm.scheduled {
		tm.scheduled = true
		c.Schedule(tm.at, tm.expire)
	}
	return false
}

func (tm *Timer) expire() {
	tm.expired = true
	if tm.w != nil {
		tm.fired = true
		tm.w.notify()
	}
}

func (tm *Timer) disarm() {
	tm.w = nil
}
