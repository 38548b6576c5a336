// Package commandtest provides recording command doubles for scheduler and
// composite tests.
package commandtest

import "github.com/me/robocmd/pkg/command"

// Mock is a command that counts every lifecycle call it receives.
type Mock struct {
	command.Base

	Initialized      int
	Executed         int
	EndedNormally    int
	EndedInterrupted int

	// Finished is returned from IsFinished.
	Finished bool
	// OnExecute, when set, runs inside Execute.
	OnExecute func()
	// OnEnd, when set, runs inside End after the counters are updated.
	OnEnd func(interrupted bool)
}

// NewMock creates a named mock with the given requirements.
func NewMock(name string, requirements ...command.Subsystem) *Mock {
	m := &Mock{}
	m.SetName(name)
	m.AddRequirements(requirements...)
	return m
}

func (m *Mock) Initialize() { m.Initialized++ }

func (m *Mock) Execute() {
	m.Executed++
	if m.OnExecute != nil {
		m.OnExecute()
	}
}

func (m *Mock) End(interrupted bool) {
	if interrupted {
		m.EndedInterrupted++
	} else {
		m.EndedNormally++
	}
	if m.OnEnd != nil {
		m.OnEnd(interrupted)
	}
}

func (m *Mock) IsFinished() bool { return m.Finished }

// Ended returns the total number of End calls.
func (m *Mock) Ended() int {
	return m.EndedNormally + m.EndedInterrupted
}

// Subsystem is a subsystem that counts Periodic calls.
type Subsystem struct {
	name      string
	Periodics int
}

// NewSubsystem creates a named counting subsystem.
func NewSubsystem(name string) *Subsystem {
	return &Subsystem{name: name}
}

func (s *Subsystem) Name() string { return s.name }
func (s *Subsystem) Periodic()    { s.Periodics++ }
