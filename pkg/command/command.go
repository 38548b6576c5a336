// Package command defines the schedulable unit of work and the subsystem
// contract used by the command scheduler, plus a library of functional,
// timed, and composite commands built on them.
package command

// Command is a unit of work with an explicit lifecycle.
//
// The scheduler calls Initialize once per scheduling episode, Execute once
// per cycle while the command is scheduled, and End exactly once when the
// command leaves the scheduled set. None of the methods may block; long
// running work is expressed by returning false from IsFinished.
//
// Commands are used as map keys by the scheduler, so implementations must be
// comparable (pointer receivers are the norm).
type Command interface {
	// Name returns a human-readable label used in logs and snapshots.
	Name() string
	// Initialize prepares the command for a new episode.
	Initialize()
	// Execute performs one cycle of work.
	Execute()
	// End is called once when the command stops; interrupted is true when
	// the command was cancelled rather than finishing on its own.
	End(interrupted bool)
	// IsFinished reports whether the command has completed its work.
	IsFinished() bool
	// Requirements returns the subsystems the command holds exclusively.
	Requirements() Requirements
	// InterruptionBehavior decides how conflicts with incoming commands resolve.
	InterruptionBehavior() InterruptionBehavior
	// RunsWhenDisabled reports whether the command keeps running while the
	// robot is disabled.
	RunsWhenDisabled() bool
}

// Subsystem owns a mutually exclusive resource, such as a mechanism.
//
// Subsystems are used as map keys for requirement ownership and must be
// comparable; use pointer types.
type Subsystem interface {
	// Name returns a stable label for the subsystem.
	Name() string
	// Periodic runs once per scheduler cycle while the subsystem is registered.
	Periodic()
}

// SubsystemBase is a minimal Subsystem with an optional periodic callback.
type SubsystemBase struct {
	name     string
	periodic func()
}

// NewSubsystem creates a named subsystem. periodic may be nil.
func NewSubsystem(name string, periodic func()) *SubsystemBase {
	return &SubsystemBase{name: name, periodic: periodic}
}

// Name returns the subsystem name.
func (s *SubsystemBase) Name() string {
	return s.name
}

// Periodic invokes the configured callback, if any.
func (s *SubsystemBase) Periodic() {
	if s.periodic != nil {
		s.periodic()
	}
}
