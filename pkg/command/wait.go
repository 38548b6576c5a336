package command

import (
	"sync"
	"time"
)

// Clock supplies the current time to latency-based commands.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock advanced explicitly, for tests and simulation.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// WaitCommand finishes once its duration has elapsed since Initialize.
// It requires nothing and runs while disabled.
type WaitCommand struct {
	Base
	clock    Clock
	duration time.Duration
	start    time.Time
}

// Wait creates a WaitCommand on the system clock.
func Wait(d time.Duration) *WaitCommand {
	return NewWait(d, nil)
}

// NewWait creates a WaitCommand reading time from clock; nil uses SystemClock.
func NewWait(d time.Duration, clock Clock) *WaitCommand {
	if clock == nil {
		clock = SystemClock{}
	}
	cmd := &WaitCommand{clock: clock, duration: d}
	cmd.SetName("Wait(" + d.String() + ")")
	cmd.SetRunsWhenDisabled(true)
	return cmd
}

func (c *WaitCommand) Initialize() {
	c.start = c.clock.Now()
}

func (c *WaitCommand) IsFinished() bool {
	return c.Elapsed() >= c.duration
}

// Elapsed returns time since the current episode started.
func (c *WaitCommand) Elapsed() time.Duration {
	return c.clock.Now().Sub(c.start)
}

// WaitUntil finishes on the first cycle cond returns true. It runs while
// disabled.
func WaitUntil(cond func() bool) *Functional {
	cmd := NewFunctional(nil, nil, nil, cond)
	cmd.SetName("WaitUntil")
	cmd.SetRunsWhenDisabled(true)
	return cmd
}
