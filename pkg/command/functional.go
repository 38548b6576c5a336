package command

import "log/slog"

// Functional is a command whose lifecycle is supplied as callbacks.
// Any nil callback is a no-op; a nil isFinished never finishes.
type Functional struct {
	Base
	onInit     func()
	onExecute  func()
	onEnd      func(interrupted bool)
	isFinished func() bool
}

// NewFunctional creates a command from lifecycle callbacks.
func NewFunctional(
	onInit func(),
	onExecute func(),
	onEnd func(interrupted bool),
	isFinished func() bool,
	requirements ...Subsystem,
) *Functional {
	cmd := &Functional{
		onInit:     onInit,
		onExecute:  onExecute,
		onEnd:      onEnd,
		isFinished: isFinished,
	}
	cmd.SetName("Functional")
	cmd.AddRequirements(requirements...)
	return cmd
}

func (c *Functional) Initialize() {
	if c.onInit != nil {
		c.onInit()
	}
}

func (c *Functional) Execute() {
	if c.onExecute != nil {
		c.onExecute()
	}
}

func (c *Functional) End(interrupted bool) {
	if c.onEnd != nil {
		c.onEnd(interrupted)
	}
}

func (c *Functional) IsFinished() bool {
	if c.isFinished == nil {
		return false
	}
	return c.isFinished()
}

func always() bool { return true }

// Instant runs action once on initialize and finishes on its first cycle.
func Instant(action func(), requirements ...Subsystem) *Functional {
	cmd := NewFunctional(action, nil, nil, always, requirements...)
	cmd.SetName("Instant")
	return cmd
}

// RunOnce is Instant under the name used by subsystem factory methods.
func RunOnce(action func(), requirements ...Subsystem) *Functional {
	cmd := Instant(action, requirements...)
	cmd.SetName("RunOnce")
	return cmd
}

// Run calls action every cycle and never finishes on its own.
func Run(action func(), requirements ...Subsystem) *Functional {
	cmd := NewFunctional(nil, action, nil, nil, requirements...)
	cmd.SetName("Run")
	return cmd
}

// StartEnd calls start on initialize and end when the command stops.
func StartEnd(start, end func(), requirements ...Subsystem) *Functional {
	cmd := NewFunctional(start, nil, func(bool) {
		if end != nil {
			end()
		}
	}, nil, requirements...)
	cmd.SetName("StartEnd")
	return cmd
}

// RunEnd calls run every cycle and end when the command stops.
func RunEnd(run, end func(), requirements ...Subsystem) *Functional {
	cmd := NewFunctional(nil, run, func(bool) {
		if end != nil {
			end()
		}
	}, nil, requirements...)
	cmd.SetName("RunEnd")
	return cmd
}

// Idle holds its requirements and does nothing until cancelled.
func Idle(requirements ...Subsystem) *Functional {
	cmd := Run(nil, requirements...)
	cmd.SetName("Idle")
	return cmd
}

// None finishes immediately without doing anything.
func None() *Functional {
	cmd := Instant(nil)
	cmd.SetName("None")
	cmd.SetRunsWhenDisabled(true)
	return cmd
}

// Print logs msg at info level and finishes. It runs while disabled.
func Print(logger *slog.Logger, msg string) *Functional {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := Instant(func() {
		logger.Info(msg, "component", "command")
	})
	cmd.SetName("Print")
	cmd.SetRunsWhenDisabled(true)
	return cmd
}
