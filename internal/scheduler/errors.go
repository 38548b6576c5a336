package scheduler

import (
	"errors"
	"fmt"
)

var (
	ErrNilCommand      = errors.New("scheduler: nil command")
	ErrNilSubsystem    = errors.New("scheduler: nil subsystem")
	ErrCommandComposed = errors.New("scheduler: command is part of a composition")
	ErrClosed          = errors.New("scheduler: closed")
	ErrReentrantRun    = errors.New("scheduler: run called from inside a cycle")

	// ErrDefaultCommandRequirement is returned when a default command does not
	// require the subsystem it is installed on.
	ErrDefaultCommandRequirement = errors.New("scheduler: default command must require its subsystem")

	// ErrCommandFault matches every *CommandFaultError via errors.Is.
	ErrCommandFault = errors.New("scheduler: command fault")

	// ErrSubsystemFault wraps a panic raised by a subsystem's Periodic.
	ErrSubsystemFault = errors.New("scheduler: subsystem fault")
)

// Phase names the lifecycle method that was running when a command faulted.
type Phase string

const (
	PhaseInitialize Phase = "initialize"
	PhaseExecute    Phase = "execute"
	PhaseIsFinished Phase = "is_finished"
	PhaseEnd        Phase = "end"
)

// CommandFaultError reports a panic raised by a command lifecycle method.
// The command has already been retired when this error is returned.
type CommandFaultError struct {
	Command string
	Phase   Phase
	Err     error
}

func (e *CommandFaultError) Error() string {
	return fmt.Sprintf("command %s faulted in %s: %v", e.Command, e.Phase, e.Err)
}

func (e *CommandFaultError) Unwrap() error { return e.Err }

func (e *CommandFaultError) Is(target error) bool { return target == ErrCommandFault }
