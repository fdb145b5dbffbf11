package internal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_ReturnsAsSoonAsConditionHolds(t *testing.T) {
	clock := NewMockClock(time.Time{})
	p := Poller{Clock: clock, Timeout: 5 * time.Second, Interval: 100 * time.Millisecond}

	calls := 0
	err := p.Until("heading", func() (bool, string, error) {
		calls++
		return calls == 3, "loading", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, clock.Sleeps())
}

func TestPoller_TimesOutWithLastObservation(t *testing.T) {
	clock := NewMockClock(time.Time{})
	p := Poller{Clock: clock, Timeout: time.Second, Interval: 200 * time.Millisecond}

	err := p.Until(`heading "Company Information"`, func() (bool, string, error) {
		return false, "Get Funding", nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), `"Get Funding"`)
	assert.Contains(t, err.Error(), "Company Information")
}

func TestPoller_EvaluatesAtLeastOnceWithZeroTimeout(t *testing.T) {
	p := Poller{Clock: NewMockClock(time.Time{})}

	calls := 0
	err := p.Until("anything", func() (bool, string, error) {
		calls++
		return true, "", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPoller_ConditionErrorAbortsImmediately(t *testing.T) {
	clock := NewMockClock(time.Time{})
	p := Poller{Clock: clock, Timeout: time.Minute}
	boom := errors.New("page crashed")

	err := p.Until("progress", func() (bool, string, error) {
		return false, "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, 0, clock.Sleeps())
}

func TestPoller_ElapsedTimeBoundedByTimeout(t *testing.T) {
	start := time.Unix(2000, 0)
	clock := NewMockClock(start)
	p := Poller{Clock: clock, Timeout: 3 * time.Second, Interval: time.Second}

	_ = p.Until("never", func() (bool, string, error) { return false, "", nil })

	assert.Equal(t, 3*time.Second, clock.Now().Sub(start))
}

func TestMockClock_AdvanceNegativePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewMockClock(time.Time{}).Advance(-time.Second)
	})
}
