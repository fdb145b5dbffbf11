package internal

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by Until when the condition never held.
var ErrTimeout = errors.New("timed out")

// Condition reports whether the awaited state has been reached. The returned
// string describes the last observed state and is included in timeout errors.
// A non-nil error aborts polling immediately.
type Condition func() (ok bool, observed string, err error)

// Poller evaluates a Condition until it holds or a deadline passes.
type Poller struct {
	Clock    Clock
	Timeout  time.Duration
	Interval time.Duration
}

// Until polls cond every p.Interval until it returns true, returns an error,
// or p.Timeout elapses. The condition is always evaluated at least once.
// On timeout the error wraps ErrTimeout and names what was awaited.
func (p Poller) Until(what string, cond Condition) error {
	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := clock.Now().Add(p.Timeout)
	var observed string
	for {
		ok, last, err := cond()
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", what, err)
		}
		if ok {
			return nil
		}
		observed = last
		if !clock.Now().Before(deadline) {
			break
		}
		clock.Sleep(interval)
	}
	if observed != "" {
		return fmt.Errorf("waiting for %s (last observed %q) after %v: %w", what, observed, p.Timeout, ErrTimeout)
	}
	return fmt.Errorf("waiting for %s after %v: %w", what, p.Timeout, ErrTimeout)
}
