package timesync

import "slices"

// Signal is a one-shot typed notification. Once raised it stays raised and
// every waiter observes the same value.
type Signal[T any] struct {
	clock   *Clock
	raised  bool
	value   T
	waiters []*SignalCase[T]
}

func NewSignal[T any](c *Clock) *Signal[T] {
	return &Signal[T]{clock: c}
}

// Raise records v and wakes all waiters at the current virtual time.
// Only the first call has an effect; it returns false for later calls.
func (s *Signal[T]) Raise(v T) bool {
	if s.raised {
		return false
	}
	s.raised = true
	s.value = v
	for _, sc := range s.waiters {
		sc.fired = true
		sc.w.notify()
	}
	s.waiters = nil
	return true
}

// Value returns the raised value and whether the signal was raised.
func (s *Signal[T]) Value() (T, bool) {
	return s.value, s.raised
}

func (s *Signal[T]) Raised() bool {
	return s.raised
}

// Case returns a case for Select that fires when the signal is raised.
func (s *Signal[T]) Case() *SignalCase[T] {
	return &SignalCase[T]{signal: s}
}

// Wait blocks until the signal is raised.
func (s *Signal[T]) Wait(t *Task) (T, error) {
	if err := t.Select(s.Case()); err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

type SignalCase[T any] struct {
	signal *Signal[T]
	w      *waiter
	fired  bool
}

func (sc *SignalCase[T]) Fired() bool {
	return sc.fired
}

// Value returns the value of the signal.
func (sc *SignalCase[T]) Value() T {
	return sc.signal.value
}

func (sc *SignalCase[T]) arm(w *waiter) bool {
	sc.fired = sc.signal.raised
	if sc.fired {
		return true
	}
	sc.w = w
	sc.signal.waiters = append(sc.signal.waiters, sc)
	return false
}

func (sc *SignalCase[T]) disarm() {
	if i := slices.Index(sc.signal.waiters, sc); i >= 0 {
		sc.signal.waiters = slices.Delete(sc.signal.waiters, i, i+1)
	}
	sc.w = nil
}
