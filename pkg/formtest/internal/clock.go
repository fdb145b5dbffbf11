// Package internal provides time and waiting primitives shared by the driver
// and the webhook interceptor.
package internal

import (
	"sync"
	"time"
)

// Clock abstracts the passage of time so polling loops can be tested
// without a browser or real sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// RealClock uses the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep calls time.Sleep.
func (RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock is a Clock whose time only moves when Advance or Sleep is called.
// Sleep advances the clock instead of blocking, so a poll loop driven by a
// MockClock runs to its deadline instantly.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	sleeps  int
}

// NewMockClock creates a MockClock initialized to t.
// If t is zero, it starts at a fixed, arbitrary instant.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0)
	}
	return &MockClock{current: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Sleep advances the clock by d without blocking.
func (m *MockClock) Sleep(d time.Duration) {
	m.mu.Lock()
	m.sleeps++
	m.mu.Unlock()
	m.Advance(d)
}

// Advance moves the clock forward by d.
// Panics if d is negative to maintain monotonicity.
func (m *MockClock) Advance(d time.Duration) {
	if d < 0 {
		panic("MockClock.Advance: duration must be non-negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Sleeps reports how many times Sleep was called.
func (m *MockClock) Sleeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sleeps
}
