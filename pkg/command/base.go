package command

import "fmt"

// Base supplies default attributes and a no-op lifecycle for commands.
// Embed it in a concrete command and override the lifecycle methods needed.
//
// The zero value has no name, no requirements, CancelSelf behavior, and does
// not run while disabled.
type Base struct {
	name             string
	requirements     Requirements
	behavior         InterruptionBehavior
	runsWhenDisabled bool
	composed         bool
}

// Name returns the configured name, or "Command" when none was set.
func (b *Base) Name() string {
	if b.name == "" {
		return "Command"
	}
	return b.name
}

// SetName replaces the command name.
func (b *Base) SetName(name string) {
	b.name = name
}

// AddRequirements adds subsystems to the requirement set.
func (b *Base) AddRequirements(subs ...Subsystem) {
	b.requirements = b.requirements.Union(NewRequirements(subs...))
}

// Requirements returns the requirement set.
func (b *Base) Requirements() Requirements {
	return b.requirements
}

// InterruptionBehavior returns the configured behavior.
func (b *Base) InterruptionBehavior() InterruptionBehavior {
	return b.behavior
}

// SetInterruptionBehavior replaces the interruption behavior.
func (b *Base) SetInterruptionBehavior(behavior InterruptionBehavior) {
	b.behavior = behavior
}

// RunsWhenDisabled reports whether the command runs while disabled.
func (b *Base) RunsWhenDisabled() bool {
	return b.runsWhenDisabled
}

// SetRunsWhenDisabled replaces the runs-when-disabled flag.
func (b *Base) SetRunsWhenDisabled(run bool) {
	b.runsWhenDisabled = run
}

func (b *Base) Initialize()      {}
func (b *Base) Execute()         {}
func (b *Base) End(bool)         {}
func (b *Base) IsFinished() bool { return false }

func (b *Base) isComposed() bool { return b.composed }
func (b *Base) markComposed()    { b.composed = true }

// composable is implemented by every command embedding Base.
type composable interface {
	isComposed() bool
	markComposed()
}

// IsComposed reports whether c has been placed inside a composite. Composed
// commands are driven by their parent and cannot be scheduled on their own.
// Commands that do not embed Base are never tracked.
func IsComposed(c Command) bool {
	tracked, ok := c.(composable)
	return ok && tracked.isComposed()
}

// claim marks children as owned by a composite. It panics on nil children
// and on children that already belong to another composite.
func claim(owner string, children ...Command) {
	for idx, child := range children {
		if child == nil {
			panic(fmt.Sprintf("command: %s: nil child at index %d", owner, idx))
		}
		if IsComposed(child) {
			panic(fmt.Sprintf("command: %s: %s is already part of a composition", owner, child.Name()))
		}
		if tracked, ok := child.(composable); ok {
			tracked.markComposed()
		}
	}
}
