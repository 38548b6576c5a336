// Package robot holds the enabled/disabled state shared between the loop
// goroutine, the dashboard, and scenario timelines.
package robot

import (
	"log/slog"
	"sync/atomic"
)

// State is a concurrency-safe enabled flag. The zero value is disabled.
type State struct {
	enabled     atomic.Bool
	transitions atomic.Uint64
	logger      *slog.Logger
}

// NewState creates a state with the given initial mode.
func NewState(enabled bool, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{logger: logger.With("component", "robot")}
	s.enabled.Store(enabled)
	return s
}

// Enable switches the robot to enabled.
func (s *State) Enable() { s.set(true) }

// Disable switches the robot to disabled.
func (s *State) Disable() { s.set(false) }

func (s *State) set(enabled bool) {
	if s.enabled.Swap(enabled) == enabled {
		return
	}
	s.transitions.Add(1)
	if s.logger != nil {
		s.logger.Info("robot mode changed", "enabled", enabled)
	}
}

// Enabled reports whether the robot is enabled.
func (s *State) Enabled() bool { return s.enabled.Load() }

// Disabled reports whether the robot is disabled. It has the signature the
// scheduler expects from its disabled source.
func (s *State) Disabled() bool { return !s.enabled.Load() }

// Transitions returns how many times the mode has changed.
func (s *State) Transitions() uint64 { return s.transitions.Load() }

// Mode returns "enabled" or "disabled".
func (s *State) Mode() string {
	if s.Enabled() {
		return "enabled"
	}
	return "disabled"
}
